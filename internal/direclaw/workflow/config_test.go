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

package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func TestLoadConfigValidWorkflow(t *testing.T) {
	yamlBody := `
id: deploy
version: "1"
steps:
  - id: plan
    type: AgentTask
    agent: planner
    prompt: "plan the deploy"
    next: review
  - id: review
    type: AgentReview
    agent: reviewer
    prompt: "review the plan"
    onApprove: apply
    onReject: plan
  - id: apply
    type: AgentTask
    agent: applier
    prompt: "apply the plan"
`
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "deploy", cfg.ID)
	require.Len(t, cfg.Steps, 3)

	entry, ok := cfg.EntryStep()
	require.True(t, ok)
	require.Equal(t, "plan", entry.ID)
}

func TestValidateRejectsReviewStepMissingBranches(t *testing.T) {
	cfg := model.WorkflowConfig{
		ID: "bad",
		Steps: []model.WorkflowStep{
			{ID: "review", Type: model.StepAgentReview, Agent: "reviewer", Prompt: "x"},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsDanglingNext(t *testing.T) {
	cfg := model.WorkflowConfig{
		ID: "bad",
		Steps: []model.WorkflowStep{
			{ID: "a", Type: model.StepAgentTask, Agent: "x", Prompt: "y", Next: "missing"},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
}
