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
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// LoadConfig reads and validates a workflow YAML definition from
// path. Unknown fields are rejected (yaml.v3's strict decode mode)
// so a typo in a workflow file fails loudly instead of silently
// defaulting.
func LoadConfig(path string) (*model.WorkflowConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &direrr.IoError{Path: path, Cause: err}
	}

	var cfg model.WorkflowConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &direrr.ParseError{Path: path, Cause: err}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the structural invariants spec §3 places on a
// WorkflowConfig: a non-empty id, at least one step, unique step ids,
// every `next`/`onApprove`/`onReject` reference resolving to a real
// step, and review steps declaring both branches.
func Validate(cfg model.WorkflowConfig) error {
	if cfg.ID == "" {
		return &direrr.ConfigValidationError{Reason: "workflow id is required"}
	}
	if len(cfg.Steps) == 0 {
		return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "workflow has no steps"}
	}

	ids := make(map[string]bool, len(cfg.Steps))
	for _, step := range cfg.Steps {
		if ids[step.ID] {
			return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "duplicate step id: " + step.ID}
		}
		ids[step.ID] = true
	}

	for _, step := range cfg.Steps {
		if step.Type == model.StepAgentReview {
			if step.OnApprove == "" || step.OnReject == "" {
				return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "review step " + step.ID + " must declare onApprove and onReject"}
			}
			if !ids[step.OnApprove] {
				return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "review step " + step.ID + " onApprove references unknown step " + step.OnApprove}
			}
			if !ids[step.OnReject] {
				return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "review step " + step.ID + " onReject references unknown step " + step.OnReject}
			}
		}
		if step.Next != "" && !ids[step.Next] {
			return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "step " + step.ID + " next references unknown step " + step.Next}
		}
	}
	return nil
}
