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
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// Trigger writes fired ScheduleJobs into queue/incoming/ as synthetic
// messages the queue worker recognizes by sender
// "scheduler:<orchestratorId>".
type Trigger struct {
	paths          fsatomic.Paths
	orchestratorID string
}

// NewTrigger returns a Trigger that emits into paths on behalf of
// orchestratorID.
func NewTrigger(paths fsatomic.Paths, orchestratorID string) *Trigger {
	return &Trigger{paths: paths, orchestratorID: orchestratorID}
}

// Fire writes one ScheduledTriggerEnvelope for job's firedAt instant.
// The envelope is carried as the JSON body of an IncomingMessage so
// it flows through the same claim/complete path as any other inbound
// message.
func (t *Trigger) Fire(job model.ScheduleJob, firedAt time.Time) error {
	executionID := uuid.NewString()
	envelope := model.ScheduledTriggerEnvelope{
		JobID:          job.JobID,
		ExecutionID:    executionID,
		TriggeredAt:    firedAt,
		OrchestratorID: t.orchestratorID,
		TargetAction:   model.RouteWorkflowStart,
		WorkflowID:     job.WorkflowID,
		Inputs:         job.Inputs,
		TargetRef:      job.TargetRef,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return &direrr.ParseError{Path: "schedule trigger envelope", Cause: err}
	}

	msg := model.IncomingMessage{
		Channel:   "scheduler",
		Sender:    "scheduler:" + t.orchestratorID,
		SenderID:  "scheduler:" + t.orchestratorID,
		Message:   string(body),
		Timestamp: firedAt,
		MessageID: executionID,
	}
	encoded, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return &direrr.ParseError{Path: "schedule trigger message", Cause: err}
	}

	path := filepath.Join(t.paths.QueueIncoming(), triggerFilename(job.JobID, executionID, firedAt))
	return fsatomic.WriteFile(path, encoded, 0o644)
}

func triggerFilename(jobID, executionID string, firedAt time.Time) string {
	return "schedule_" + sanitize(jobID) + "_" + sanitize(executionID) + "_" + strconv.FormatInt(firedAt.UnixMilli(), 10) + ".json"
}

func sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
