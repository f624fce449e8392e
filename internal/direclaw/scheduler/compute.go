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
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// ComputeNextFireAt returns job's next fire instant strictly after
// now, given its last fire time (zero if never fired). A nil return
// means the job has no more future fires (a past Once that already
// fired, or a cron expression whose search window was exhausted).
func ComputeNextFireAt(job model.ScheduleJob, now time.Time, lastFiredAt time.Time) (*time.Time, error) {
	switch job.Kind {
	case model.ScheduleOnce:
		if job.At == nil {
			return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "once schedule requires at"}
		}
		if job.At.After(now) {
			at := *job.At
			return &at, nil
		}
		return nil, nil

	case model.ScheduleInterval:
		if job.EveryMs <= 0 {
			return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "interval schedule requires a positive everyMs"}
		}
		anchor := now
		if job.AnchorAt != nil {
			anchor = *job.AnchorAt
		}
		every := time.Duration(job.EveryMs) * time.Millisecond

		base := anchor
		if !lastFiredAt.IsZero() && lastFiredAt.After(base) {
			base = lastFiredAt
		}
		next := base.Add(every)
		for !next.After(now) {
			next = next.Add(every)
		}
		return &next, nil

	case model.ScheduleCron:
		if job.CronExpr == "" {
			return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "cron schedule requires cronExpr"}
		}
		loc := time.UTC
		if job.Timezone != "" {
			l, err := time.LoadLocation(job.Timezone)
			if err != nil {
				return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "invalid timezone: " + job.Timezone}
			}
			loc = l
		}
		expr, err := parseCron(job.CronExpr)
		if err != nil {
			return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "invalid cron expression: " + err.Error()}
		}
		next := expr.next(now.In(loc))
		if next.IsZero() {
			return nil, nil
		}
		return &next, nil

	default:
		return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "unknown schedule kind: " + string(job.Kind)}
	}
}

// MissedFires applies job's misfire policy against the gap between
// its last computed nextFireAt and now, returning the fire instants
// that should run immediately, in ascending order. FireAll is bounded by
// model.MaxFireAllBurst; additional missed fires are silently
// dropped rather than replayed.
func MissedFires(job model.ScheduleJob, now time.Time) ([]time.Time, error) {
	if job.NextFireAt == nil || job.NextFireAt.After(now) {
		return nil, nil
	}

	switch job.Misfire {
	case model.MisfireSkipMissed, "":
		return nil, nil

	case model.MisfireFireOnceOnRecovery:
		return []time.Time{*job.NextFireAt}, nil

	case model.MisfireFireAll:
		var fires []time.Time
		cursor := *job.NextFireAt
		lastFired := time.Time{}
		if job.LastFiredAt != nil {
			lastFired = *job.LastFiredAt
		}
		for len(fires) < model.MaxFireAllBurst && !cursor.After(now) {
			fires = append(fires, cursor)
			next, err := ComputeNextFireAt(job, cursor, lastFired)
			if err != nil {
				return nil, err
			}
			if next == nil {
				break
			}
			lastFired = cursor
			cursor = *next
		}
		return fires, nil

	default:
		return nil, &direrr.SchedulerValidationError{JobID: job.JobID, Reason: "unknown misfire policy: " + string(job.Misfire)}
	}
}
