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

// WorkerState is a worker's closed health-state set (mirrors
// worker_registry.rs's state machine).
type WorkerState string

const (
	WorkerStarting WorkerState = "starting"
	WorkerIdle     WorkerState = "idle"
	WorkerBusy     WorkerState = "busy"
	WorkerStopping WorkerState = "stopping"
	WorkerStopped  WorkerState = "stopped"
	WorkerCrashed  WorkerState = "crashed"
)

// ValidWorkerTransition reports whether a worker may move from one
// health state to another.
func ValidWorkerTransition(from, to WorkerState) bool {
	switch from {
	case WorkerStarting:
		return to == WorkerIdle || to == WorkerCrashed
	case WorkerIdle:
		return to == WorkerBusy || to == WorkerStopping || to == WorkerCrashed
	case WorkerBusy:
		return to == WorkerIdle || to == WorkerStopping || to == WorkerCrashed
	case WorkerStopping:
		return to == WorkerStopped || to == WorkerCrashed
	default:
		return false
	}
}

// WorkerHealth is one worker's entry in the supervisor's health
// table.
type WorkerHealth struct {
	WorkerID     string      `json:"workerId"`
	State        WorkerState `json:"state"`
	CurrentKey   string      `json:"currentKey,omitempty"`
	LastHeartbeat time.Time  `json:"lastHeartbeat"`
	StartedAt    time.Time   `json:"startedAt"`
}

// SupervisorState is the persisted daemon runtime record
// (daemon/runtime.json).
type SupervisorState struct {
	PID         int            `json:"pid"`
	StartedAt   time.Time      `json:"startedAt"`
	Version     string         `json:"version,omitempty"`
	Workers     []WorkerHealth `json:"workers,omitempty"`
	LastUpdated time.Time      `json:"lastUpdated"`
}
