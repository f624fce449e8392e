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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	return New(paths)
}

func TestStoreCreateAndLoadJob(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job, err := store.CreateJob(model.ScheduleJob{
		Kind:       model.ScheduleInterval,
		EveryMs:    60_000,
		WorkflowID: "deploy",
		Enabled:    true,
	}, now)
	require.NoError(t, err)
	require.NotEmpty(t, job.JobID)
	require.Equal(t, model.ScheduleJobActive, job.State)
	require.NotNil(t, job.NextFireAt)

	loaded, err := store.Load(job.JobID)
	require.NoError(t, err)
	require.Equal(t, job.JobID, loaded.JobID)
	require.Equal(t, "deploy", loaded.WorkflowID)
}

func TestStoreListEnabledExcludesDisabledAndDeleted(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	enabled, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleInterval, EveryMs: 60_000, WorkflowID: "a", Enabled: true}, now)
	require.NoError(t, err)
	disabled, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleInterval, EveryMs: 60_000, WorkflowID: "b", Enabled: false}, now)
	require.NoError(t, err)
	deleted, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleInterval, EveryMs: 60_000, WorkflowID: "c", Enabled: true}, now)
	require.NoError(t, err)
	require.NoError(t, store.Delete(deleted.JobID))

	jobs, err := store.ListEnabled()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, enabled.JobID, jobs[0].JobID)
	_ = disabled
}

func TestStoreDeleteIsTombstoneNotRemoval(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleOnce, At: timePtr(now.Add(time.Hour)), WorkflowID: "a", Enabled: true}, now)
	require.NoError(t, err)
	require.NoError(t, store.Delete(job.JobID))

	loaded, err := store.Load(job.JobID)
	require.NoError(t, err)
	require.Equal(t, model.ScheduleJobDeleted, loaded.State)
}

func TestStoreRecordFireAdvancesNextFireAt(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job, err := store.CreateJob(model.ScheduleJob{Kind: model.ScheduleInterval, EveryMs: 60_000, WorkflowID: "a", Enabled: true}, now)
	require.NoError(t, err)
	firstNext := *job.NextFireAt

	require.NoError(t, store.RecordFire(job, firstNext))
	require.NotNil(t, job.NextFireAt)
	require.True(t, job.NextFireAt.After(firstNext))
}

func timePtr(t time.Time) *time.Time { return &t }
