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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRunTerminalIncrements(t *testing.T) {
	initial := testutil.ToFloat64(runsTotal.With(prometheus.Labels{
		"workflow_id": "deploy",
		"state":       "completed",
	}))

	RecordRunTerminal("deploy", "completed")

	after := testutil.ToFloat64(runsTotal.With(prometheus.Labels{
		"workflow_id": "deploy",
		"state":       "completed",
	}))

	if after != initial+1 {
		t.Fatalf("expected count to increment by 1, got initial=%f, after=%f", initial, after)
	}
}

func TestSetQueueDepthOverwritesGauge(t *testing.T) {
	SetQueueDepth("incoming", 3)
	if got := testutil.ToFloat64(queueDepth.With(prometheus.Labels{"directory": "incoming"})); got != 3 {
		t.Fatalf("expected gauge 3, got %f", got)
	}

	SetQueueDepth("incoming", 0)
	if got := testutil.ToFloat64(queueDepth.With(prometheus.Labels{"directory": "incoming"})); got != 0 {
		t.Fatalf("expected gauge 0, got %f", got)
	}
}

func TestRecordSelectorDecisionLabelsFellBackToDefault(t *testing.T) {
	initial := testutil.ToFloat64(selectorDecisionsTotal.With(prometheus.Labels{
		"action":               "WorkflowStart",
		"fell_back_to_default": "true",
	}))

	RecordSelectorDecision("WorkflowStart", true)

	after := testutil.ToFloat64(selectorDecisionsTotal.With(prometheus.Labels{
		"action":               "WorkflowStart",
		"fell_back_to_default": "true",
	}))

	if after != initial+1 {
		t.Fatalf("expected count to increment by 1, got initial=%f, after=%f", initial, after)
	}
}

func TestRecordWorkspaceDenialIncrements(t *testing.T) {
	initial := testutil.ToFloat64(workspaceDenialsTotal.With(prometheus.Labels{"orchestrator_id": "engineering"}))

	RecordWorkspaceDenial("engineering")

	after := testutil.ToFloat64(workspaceDenialsTotal.With(prometheus.Labels{"orchestrator_id": "engineering"}))
	if after != initial+1 {
		t.Fatalf("expected count to increment by 1, got initial=%f, after=%f", initial, after)
	}
}

func TestRecordScheduleFireLabelsReplay(t *testing.T) {
	initial := testutil.ToFloat64(scheduleFiresTotal.With(prometheus.Labels{"job_id": "job-1", "replay": "false"}))

	RecordScheduleFire("job-1", false)

	after := testutil.ToFloat64(scheduleFiresTotal.With(prometheus.Labels{"job_id": "job-1", "replay": "false"}))
	if after != initial+1 {
		t.Fatalf("expected count to increment by 1, got initial=%f, after=%f", initial, after)
	}
}
