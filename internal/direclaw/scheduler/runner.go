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
	"context"
	"log/slog"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/diagnostics"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// tickInterval is how often Runner checks for due jobs.
const tickInterval = 1 * time.Second

// OverlapChecker reports whether a job already has an unresolved run
// in flight, used to enforce allowOverlap=false.
type OverlapChecker interface {
	HasUnresolvedRun(workflowID string) (bool, error)
}

// Runner drives the scheduler's tick loop: on each tick it recovers
// any missed fires per job's misfire policy, then fires every job
// whose NextFireAt has arrived.
type Runner struct {
	store   *Store
	trigger *Trigger
	overlap OverlapChecker
	log     *slog.Logger
}

// NewRunner returns a Runner.
func NewRunner(store *Store, trigger *Trigger, overlap OverlapChecker, log *slog.Logger) *Runner {
	return &Runner{store: store, trigger: trigger, overlap: overlap, log: log}
}

// Run blocks, ticking once a second, until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.Tick(now); err != nil {
				r.log.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// Tick fires every enabled job whose NextFireAt is due as of now,
// applying each job's misfire policy for any fires missed since the
// last tick (relevant only immediately after daemon startup, when a
// job's NextFireAt may be far in the past).
func (r *Runner) Tick(now time.Time) error {
	jobs, err := r.store.ListEnabled()
	if err != nil {
		return err
	}

	for _, job := range jobs {
		fires, err := MissedFires(job, now)
		if err != nil {
			r.log.Error("failed to compute missed fires", "job", job.JobID, "error", err)
			continue
		}
		replay := len(fires) > 0
		if len(fires) == 0 && job.NextFireAt != nil && !job.NextFireAt.After(now) {
			fires = []time.Time{*job.NextFireAt}
		}

		for _, firedAt := range fires {
			if err := r.fireOnce(job, firedAt, replay); err != nil {
				r.log.Error("failed to fire job", "job", job.JobID, "error", err)
				break
			}
		}
	}
	return nil
}

func (r *Runner) fireOnce(job model.ScheduleJob, firedAt time.Time, replay bool) error {
	if !job.AllowOverlap && r.overlap != nil {
		busy, err := r.overlap.HasUnresolvedRun(job.WorkflowID)
		if err != nil {
			return err
		}
		if busy {
			r.log.Warn("skipping overlapping schedule fire", "job", job.JobID, "workflow", job.WorkflowID)
			return nil
		}
	}

	if err := r.trigger.Fire(job, firedAt); err != nil {
		return err
	}
	diagnostics.RecordScheduleFire(job.JobID, replay)
	return r.store.RecordFire(&job, firedAt)
}
