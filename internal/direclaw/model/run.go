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

// RunState is WorkflowRun's closed state set (spec §3).
type RunState string

const (
	RunQueued        RunState = "Queued"
	RunRunning       RunState = "Running"
	RunAwaitingHuman RunState = "AwaitingHuman"
	RunCompleted     RunState = "Completed"
	RunFailed        RunState = "Failed"
	RunCanceled      RunState = "Canceled"
)

// IsTerminal reports whether s is one of the run's terminal states.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCanceled:
		return true
	default:
		return false
	}
}

// ValidRunTransition reports whether the engine may move a run from
// `from` to `to`. Only Running may move to AwaitingHuman; only
// Running/AwaitingHuman may move to a terminal state. Running may
// also move to Running, which records the engine advancing to the
// next step; no other state may move to itself.
func ValidRunTransition(from, to RunState) bool {
	if from == to {
		return from == RunRunning
	}
	switch to {
	case RunRunning:
		return from == RunQueued || from == RunAwaitingHuman
	case RunAwaitingHuman:
		return from == RunRunning
	case RunCompleted, RunFailed, RunCanceled:
		return from == RunRunning || from == RunAwaitingHuman
	default:
		return false
	}
}

// HistoryEntry records one state transition of a WorkflowRun.
type HistoryEntry struct {
	From      RunState  `json:"from"`
	To        RunState  `json:"to"`
	At        time.Time `json:"at"`
	StepID    string    `json:"stepId,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// WorkflowRun is the persisted record of one workflow execution.
type WorkflowRun struct {
	RunID                string                 `json:"runId"`
	WorkflowID           string                 `json:"workflowId"`
	State                RunState               `json:"state"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
	ChannelProfileID     string                 `json:"channelProfileId,omitempty"`
	StatusConversationID string                 `json:"statusConversationId,omitempty"`
	SourceMessageID      string                 `json:"sourceMessageId,omitempty"`
	Inputs               map[string]any         `json:"inputs,omitempty"`
	CurrentStepID        string                 `json:"currentStepId,omitempty"`
	CurrentAttempt       int                    `json:"currentAttempt,omitempty"`
	History              []HistoryEntry         `json:"history,omitempty"`
	Error                string                 `json:"error,omitempty"`
}

// ProgressSnapshot is derived and regenerated on every persist; it is
// never the source of truth for state transitions.
type ProgressSnapshot struct {
	RunID       string    `json:"runId"`
	WorkflowID  string    `json:"workflowId"`
	State       RunState  `json:"state"`
	CurrentStep string    `json:"currentStep,omitempty"`
	Attempt     int       `json:"attempt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Snapshot derives a ProgressSnapshot from the current run state.
func (r WorkflowRun) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		RunID:       r.RunID,
		WorkflowID:  r.WorkflowID,
		State:       r.State,
		CurrentStep: r.CurrentStepID,
		Attempt:     r.CurrentAttempt,
		UpdatedAt:   r.UpdatedAt,
	}
}
