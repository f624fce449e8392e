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

// SelectorRequest is written to select/incoming/ when an orchestrator
// needs a workflow choice for an IncomingMessage.
type SelectorRequest struct {
	RequestID        string          `json:"requestId"`
	OrchestratorID   string          `json:"orchestratorId"`
	Message          IncomingMessage `json:"message"`
	AvailableWorkflows []string      `json:"availableWorkflows"`
	DefaultWorkflow  string          `json:"defaultWorkflow"`
	Attempt          int             `json:"attempt"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// SelectorStatus is the top-level outcome of a selector invocation.
type SelectorStatus string

const (
	SelectorSelected SelectorStatus = "Selected"
	SelectorDeclined SelectorStatus = "Declined"
)

// SelectorAction discriminates what a Selected result asks the engine
// to do next.
type SelectorAction string

const (
	ActionWorkflowStart    SelectorAction = "WorkflowStart"
	ActionWorkflowStatus   SelectorAction = "WorkflowStatus"
	ActionWorkflowContinue SelectorAction = "WorkflowContinue"
	ActionCommandInvoke    SelectorAction = "CommandInvoke"
)

// SelectorResult is the selector agent's validated JSON response.
type SelectorResult struct {
	RequestID  string  `json:"requestId"`
	WorkflowID string  `json:"workflowId"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`

	SelectorID       string         `json:"selectorId,omitempty"`
	Status           SelectorStatus `json:"status,omitempty"`
	Action           SelectorAction `json:"action,omitempty"`
	SelectedWorkflow string         `json:"selectedWorkflow,omitempty"`
	DiagnosticsScope string         `json:"diagnosticsScope,omitempty"`
	FunctionID       string         `json:"functionId,omitempty"`
	FunctionArgs     map[string]any `json:"functionArgs,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	RunID            string         `json:"runId,omitempty"`
	FellBackToDefault bool          `json:"fellBackToDefault,omitempty"`
	RetriesUsed      int            `json:"retriesUsed,omitempty"`
}

// FunctionSchema describes one available read-only function a
// selector may invoke via CommandInvoke, and the shape its
// functionArgs must take.
type FunctionSchema struct {
	FunctionID string                    `json:"functionId"`
	ReadOnly   bool                      `json:"readOnly"`
	Arguments  map[string]ArgumentSchema `json:"arguments"`
}

// ArgumentType is the closed set of value shapes a function argument
// may declare.
type ArgumentType string

const (
	ArgString ArgumentType = "String"
	ArgNumber ArgumentType = "Number"
	ArgBool   ArgumentType = "Boolean"
	ArgObject ArgumentType = "Object"
	ArgArray  ArgumentType = "Array"
)

// ArgumentSchema is one functionArgs entry's validation rule. Object
// arguments may nest further ArgumentSchemas under Properties,
// enforced recursively.
type ArgumentSchema struct {
	Type       ArgumentType              `json:"type"`
	Required   bool                      `json:"required"`
	Properties map[string]ArgumentSchema `json:"properties,omitempty"`
}

// LexicalMatch is a lexical-fast-path candidate with its score, used
// to decide whether to skip the selector agent invocation entirely.
type LexicalMatch struct {
	WorkflowID string
	Score      float64
}
