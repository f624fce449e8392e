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

package runstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	return New(paths)
}

func TestNewRunPersistsQueuedState(t *testing.T) {
	s := newTestStore(t)
	run, err := s.NewRun("wf-1", map[string]any{"foo": "bar"}, "profile-1", "msg-1")
	require.NoError(t, err)
	require.Equal(t, model.RunQueued, run.State)

	loaded, err := s.Load(run.RunID)
	require.NoError(t, err)
	require.Equal(t, run.WorkflowID, loaded.WorkflowID)
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	s := newTestStore(t)
	run, err := s.NewRun("wf-1", nil, "", "")
	require.NoError(t, err)

	err = s.Transition(run, model.RunCompleted, "", 0, "")
	require.Error(t, err)
	var invalid *direrr.InvalidRunTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestTransitionAppendsHistory(t *testing.T) {
	s := newTestStore(t)
	run, err := s.NewRun("wf-1", nil, "", "")
	require.NoError(t, err)

	require.NoError(t, s.Transition(run, model.RunRunning, "step-1", 1, "started"))
	require.Equal(t, model.RunRunning, run.State)
	require.Len(t, run.History, 1)
	require.Equal(t, model.RunQueued, run.History[0].From)

	require.NoError(t, s.Transition(run, model.RunCompleted, "step-1", 1, "done"))
	require.Equal(t, model.RunCompleted, run.State)
}

func TestLatestRunForSourceMessage(t *testing.T) {
	s := newTestStore(t)
	_, err := s.NewRun("wf-1", nil, "", "msg-a")
	require.NoError(t, err)
	run2, err := s.NewRun("wf-1", nil, "", "msg-b")
	require.NoError(t, err)

	found, err := s.LatestRunForSourceMessage("msg-b")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, run2.RunID, found.RunID)
}
