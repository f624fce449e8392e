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

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func TestComputeNextFireAtOnceInFuture(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := now.Add(time.Hour)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleOnce, At: &at}

	next, err := ComputeNextFireAt(job, now, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, next)
	require.True(t, next.Equal(at))
}

func TestComputeNextFireAtOncePastReturnsNil(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleOnce, At: &at}

	next, err := ComputeNextFireAt(job, now, time.Time{})
	require.NoError(t, err)
	require.Nil(t, next)
}

func TestComputeNextFireAtIntervalAdvancesPastLastFire(t *testing.T) {
	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleInterval, EveryMs: 60_000, AnchorAt: &anchor}

	now := anchor.Add(90 * time.Second)
	lastFired := anchor
	next, err := ComputeNextFireAt(job, now, lastFired)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.True(t, next.After(now))
	require.True(t, next.Equal(anchor.Add(2*time.Minute)))
}

func TestComputeNextFireAtCronReturnsNextMatch(t *testing.T) {
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleCron, CronExpr: "0 * * * *"}
	now := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)

	next, err := ComputeNextFireAt(job, now, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, 0, next.Minute())
	require.True(t, next.After(now))
}

func TestMissedFiresSkipMissedDropsPastFires(t *testing.T) {
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	missed := now.Add(-10 * time.Minute)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleInterval, EveryMs: 60_000, Misfire: model.MisfireSkipMissed, NextFireAt: &missed}

	fires, err := MissedFires(job, now)
	require.NoError(t, err)
	require.Empty(t, fires)
}

func TestMissedFiresFireOnceOnRecoveryFiresSingle(t *testing.T) {
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	missed := now.Add(-10 * time.Minute)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleInterval, EveryMs: 60_000, Misfire: model.MisfireFireOnceOnRecovery, NextFireAt: &missed}

	fires, err := MissedFires(job, now)
	require.NoError(t, err)
	require.Len(t, fires, 1)
	require.True(t, fires[0].Equal(missed))
}

func TestMissedFiresFireAllIsBoundedByBurstCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	missed := now.Add(-24 * time.Hour)
	job := model.ScheduleJob{JobID: "j1", Kind: model.ScheduleInterval, EveryMs: 60_000, Misfire: model.MisfireFireAll, NextFireAt: &missed}

	fires, err := MissedFires(job, now)
	require.NoError(t, err)
	require.LessOrEqual(t, len(fires), model.MaxFireAllBurst)
	require.Len(t, fires, model.MaxFireAllBurst)
}
