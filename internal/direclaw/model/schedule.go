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

package model

import "time"

// ScheduleKind is a ScheduleJob's closed trigger-type set.
type ScheduleKind string

const (
	ScheduleOnce     ScheduleKind = "once"
	ScheduleInterval ScheduleKind = "interval"
	ScheduleCron     ScheduleKind = "cron"
)

// MisfirePolicy controls what happens when a scheduled fire time was
// missed (daemon was down, clock jumped, etc).
type MisfirePolicy string

const (
	MisfireFireOnceOnRecovery MisfirePolicy = "fire_once_on_recovery"
	MisfireSkipMissed         MisfirePolicy = "skip_missed"
	MisfireFireAll            MisfirePolicy = "fire_all"
)

// MaxFireAllBurst bounds how many missed fires a FireAll policy will
// emit in one recovery pass. Unspecified by the source; chosen as a
// conservative default.
const MaxFireAllBurst = 100

// ScheduleJobState is a job's lifecycle state. Deletion is a soft
// tombstone: a Deleted job is never resumed.
type ScheduleJobState string

const (
	ScheduleJobActive  ScheduleJobState = "active"
	ScheduleJobDeleted ScheduleJobState = "deleted"
)

// ScheduleJob is a persisted scheduled trigger definition.
type ScheduleJob struct {
	JobID            string           `json:"jobId"`
	Kind             ScheduleKind     `json:"kind"`
	At               *time.Time       `json:"at,omitempty"`
	EveryMs          int64            `json:"everyMs,omitempty"`
	AnchorAt         *time.Time       `json:"anchorAt,omitempty"`
	CronExpr         string           `json:"cronExpr,omitempty"`
	Timezone         string           `json:"timezone,omitempty"`
	Misfire          MisfirePolicy    `json:"misfire"`
	WorkflowID       string           `json:"workflowId"`
	ChannelProfileID string           `json:"channelProfileId,omitempty"`
	Inputs           map[string]any   `json:"inputs,omitempty"`
	TargetRef        *TargetRef       `json:"targetRef,omitempty"`
	AllowOverlap     bool             `json:"allowOverlap"`
	State            ScheduleJobState `json:"state"`
	Enabled          bool             `json:"enabled"`
	LastFiredAt      *time.Time       `json:"lastFiredAt,omitempty"`
	NextFireAt       *time.Time       `json:"nextFireAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// ScheduledTriggerEnvelope is the synthetic message body a fired job
// writes into queue/incoming/. The queue worker recognizes it by
// sender `scheduler:<orchestratorId>`.
type ScheduledTriggerEnvelope struct {
	JobID          string         `json:"jobId"`
	ExecutionID    string         `json:"executionId"`
	TriggeredAt    time.Time      `json:"triggeredAt"`
	OrchestratorID string         `json:"orchestratorId"`
	TargetAction   RouteActionKind `json:"targetAction"`
	WorkflowID     string         `json:"workflowId,omitempty"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	TargetRef      *TargetRef     `json:"targetRef,omitempty"`
}
