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

package diagnostics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "direclaw_queue_depth",
			Help: "Number of files currently sitting in a queue directory, by directory.",
		},
		[]string{"directory"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "direclaw_workflow_runs_total",
			Help: "Total number of workflow runs, by workflow id and terminal state.",
		},
		[]string{"workflow_id", "state"},
	)

	selectorDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "direclaw_selector_decisions_total",
			Help: "Total number of selector decisions, by action and whether the default fallback was used.",
		},
		[]string{"action", "fell_back_to_default"},
	)

	workspaceDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "direclaw_workspace_access_denials_total",
			Help: "Total number of workspace access denials, by orchestrator id.",
		},
		[]string{"orchestrator_id"},
	)

	scheduleFiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "direclaw_schedule_fires_total",
			Help: "Total number of schedule job fires, by job id and whether it was a misfire replay.",
		},
		[]string{"job_id", "replay"},
	)
)

// SetQueueDepth records the current number of files in a queue
// directory (incoming, processing, or outgoing).
func SetQueueDepth(directory string, depth int) {
	queueDepth.WithLabelValues(directory).Set(float64(depth))
}

// RecordRunTerminal records a workflow run reaching a terminal state.
func RecordRunTerminal(workflowID, state string) {
	runsTotal.WithLabelValues(workflowID, state).Inc()
}

// RecordSelectorDecision records a selector decision's action and
// whether it fell back to the orchestrator's default workflow.
func RecordSelectorDecision(action string, fellBackToDefault bool) {
	selectorDecisionsTotal.WithLabelValues(action, boolLabel(fellBackToDefault)).Inc()
}

// RecordWorkspaceDenial records a workspace access denial for an
// orchestrator.
func RecordWorkspaceDenial(orchestratorID string) {
	workspaceDenialsTotal.WithLabelValues(orchestratorID).Inc()
}

// RecordScheduleFire records a schedule job fire.
func RecordScheduleFire(jobID string, replay bool) {
	scheduleFiresTotal.WithLabelValues(jobID, boolLabel(replay)).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
