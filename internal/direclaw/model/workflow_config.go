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

// StepType is a workflow step's closed type set.
type StepType string

const (
	StepAgentTask   StepType = "AgentTask"
	StepAgentReview StepType = "AgentReview"
)

// PromptType discriminates a plain prompt from a workflow-result
// envelope prompt (used for review steps, which see the prior step's
// result text).
type PromptType string

const (
	PromptPlain           PromptType = "plain"
	PromptResultEnvelope  PromptType = "result_envelope"
)

// WorkspaceMode controls which workspace roots a step's agent
// invocation may touch.
type WorkspaceMode string

const (
	WorkspacePrivate WorkspaceMode = "private"
	WorkspaceShared  WorkspaceMode = "shared"
)

// StepLimits overrides the workflow- or engine-level safety defaults
// for a single step.
type StepLimits struct {
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeoutSeconds,omitempty"`
	MaxRetries     int `yaml:"max_retries,omitempty" json:"maxRetries,omitempty"`
}

// WorkflowStep is one node of a WorkflowConfig's step graph.
type WorkflowStep struct {
	ID            string            `yaml:"id" json:"id"`
	Type          StepType          `yaml:"type" json:"type"`
	Agent         string            `yaml:"agent" json:"agent"`
	Prompt        string            `yaml:"prompt" json:"prompt"`
	PromptType    PromptType        `yaml:"prompt_type,omitempty" json:"promptType,omitempty"`
	WorkspaceMode WorkspaceMode     `yaml:"workspace_mode,omitempty" json:"workspaceMode,omitempty"`
	Next          string            `yaml:"next,omitempty" json:"next,omitempty"`
	OnApprove     string            `yaml:"on_approve,omitempty" json:"onApprove,omitempty"`
	OnReject      string            `yaml:"on_reject,omitempty" json:"onReject,omitempty"`
	Outputs       []string          `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	OutputFiles   map[string]string `yaml:"output_files,omitempty" json:"outputFiles,omitempty"`
	Limits        *StepLimits       `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// WorkflowLimits are the per-run safety defaults (spec §4.8), all
// overridable per WorkflowConfig.
type WorkflowLimits struct {
	MaxTotalIterations int `yaml:"max_total_iterations,omitempty" json:"maxTotalIterations,omitempty"`
	RunTimeoutSeconds  int `yaml:"run_timeout_seconds,omitempty" json:"runTimeoutSeconds,omitempty"`
	StepTimeoutSeconds int `yaml:"step_timeout_seconds,omitempty" json:"stepTimeoutSeconds,omitempty"`
	MaxRetries         int `yaml:"max_retries,omitempty" json:"maxRetries,omitempty"`
}

// Default safety limits (spec §4.8).
const (
	DefaultMaxTotalIterations = 12
	DefaultRunTimeoutSeconds  = 3600
	DefaultStepTimeoutSeconds = 900
	DefaultMaxRetries         = 2
)

// WithDefaults returns l with every zero field replaced by the
// engine default.
func (l WorkflowLimits) WithDefaults() WorkflowLimits {
	if l.MaxTotalIterations == 0 {
		l.MaxTotalIterations = DefaultMaxTotalIterations
	}
	if l.RunTimeoutSeconds == 0 {
		l.RunTimeoutSeconds = DefaultRunTimeoutSeconds
	}
	if l.StepTimeoutSeconds == 0 {
		l.StepTimeoutSeconds = DefaultStepTimeoutSeconds
	}
	if l.MaxRetries == 0 {
		l.MaxRetries = DefaultMaxRetries
	}
	return l
}

// WorkflowConfig is the parsed shape of a workflow YAML definition.
type WorkflowConfig struct {
	ID      string                 `yaml:"id" json:"id"`
	Version string                 `yaml:"version" json:"version"`
	Inputs  map[string]any         `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Limits  *WorkflowLimits        `yaml:"limits,omitempty" json:"limits,omitempty"`
	Steps   []WorkflowStep         `yaml:"steps" json:"steps"`
}

// EntryStep returns the workflow's single entry step (the first
// element of Steps), or false if the workflow has no steps.
func (c WorkflowConfig) EntryStep() (WorkflowStep, bool) {
	if len(c.Steps) == 0 {
		return WorkflowStep{}, false
	}
	return c.Steps[0], true
}

// StepByID returns the step with the given id.
func (c WorkflowConfig) StepByID(id string) (WorkflowStep, bool) {
	for _, s := range c.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// AgentEntry configures one named agent available to an orchestrator.
type AgentEntry struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// OrchestratorConfig is the parsed shape of orchestrator.yaml.
type OrchestratorConfig struct {
	ID                     string                    `yaml:"id" json:"id"`
	SelectorAgent          string                    `yaml:"selector_agent" json:"selectorAgent"`
	DefaultWorkflow        string                    `yaml:"default_workflow" json:"defaultWorkflow"`
	SelectionMaxRetries    int                       `yaml:"selection_max_retries" json:"selectionMaxRetries"`
	SelectorTimeoutSeconds int                       `yaml:"selector_timeout_seconds" json:"selectorTimeoutSeconds"`
	Agents                 map[string]AgentEntry     `yaml:"agents,omitempty" json:"agents,omitempty"`
	Workflows              []string                  `yaml:"workflows,omitempty" json:"workflows,omitempty"`
	WorkflowOrchestration  map[string]any             `yaml:"workflow_orchestration,omitempty" json:"workflowOrchestration,omitempty"`
	SharedAccess           []string                  `yaml:"shared_access,omitempty" json:"sharedAccess,omitempty"`
}

// DefaultSelectorTimeoutSeconds is the default wall-clock budget for
// a selector invocation (spec §5).
const DefaultSelectorTimeoutSeconds = 30

// WithDefaults fills unset OrchestratorConfig fields with engine
// defaults.
func (c OrchestratorConfig) WithDefaults() OrchestratorConfig {
	if c.SelectorTimeoutSeconds == 0 {
		c.SelectorTimeoutSeconds = DefaultSelectorTimeoutSeconds
	}
	return c
}
