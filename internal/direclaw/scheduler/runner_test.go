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
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

type stubOverlapChecker struct {
	busy bool
}

func (s stubOverlapChecker) HasUnresolvedRun(workflowID string) (bool, error) {
	return s.busy, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerTickFiresDueJob(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	store := New(paths)
	trigger := NewTrigger(paths, "engineering")
	runner := NewRunner(store, trigger, stubOverlapChecker{busy: false}, testLogger())

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	job, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleOnce, At: &past, WorkflowID: "deploy", Enabled: true}, now.Add(-2*time.Minute))
	require.NoError(t, err)
	job.NextFireAt = &past
	require.NoError(t, store.persist(*job))

	require.NoError(t, runner.Tick(now))

	entries, err := os.ReadDir(paths.QueueIncoming())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunnerTickSkipsOverlappingJob(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	store := New(paths)
	trigger := NewTrigger(paths, "engineering")
	runner := NewRunner(store, trigger, stubOverlapChecker{busy: true}, testLogger())

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	job, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleOnce, At: &past, WorkflowID: "deploy", Enabled: true}, now.Add(-2*time.Minute))
	require.NoError(t, err)
	job.NextFireAt = &past
	require.NoError(t, store.persist(*job))

	require.NoError(t, runner.Tick(now))

	entries, err := os.ReadDir(paths.QueueIncoming())
	require.NoError(t, err)
	require.Empty(t, entries)
}
