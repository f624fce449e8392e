// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func TestTriggerFireWritesIncomingMessage(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	trigger := NewTrigger(paths, "engineering")

	job := model.ScheduleJob{JobID: "job-1", WorkflowID: "deploy"}
	firedAt := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, trigger.Fire(job, firedAt))

	entries, err := os.ReadDir(paths.QueueIncoming())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(filepath.Join(paths.QueueIncoming(), entries[0].Name()))
	require.NoError(t, err)

	var msg model.IncomingMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, "scheduler:engineering", msg.Sender)

	var envelope model.ScheduledTriggerEnvelope
	require.NoError(t, json.Unmarshal([]byte(msg.Message), &envelope))
	require.Equal(t, "job-1", envelope.JobID)
	require.Equal(t, "deploy", envelope.WorkflowID)
	require.Equal(t, model.RouteWorkflowStart, envelope.TargetAction)
}
