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

// Package config loads the engine's two YAML configuration surfaces:
// the global ~/.direclaw.yaml and each orchestrator's orchestrator.yaml
// (spec §6). Both use yaml.v3's strict decode mode so an unknown
// field or a type mismatch fails loudly at startup rather than
// silently defaulting.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// DefaultGlobalConfigFileName is the file name looked up under $HOME.
const DefaultGlobalConfigFileName = ".direclaw.yaml"

// DefaultGlobalConfigPath returns $HOME/.direclaw.yaml.
func DefaultGlobalConfigPath() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", &direrr.ConfigValidationError{Reason: "HOME environment variable is not set"}
	}
	return filepath.Join(home, DefaultGlobalConfigFileName), nil
}

// LoadGlobalConfig reads and strictly decodes the global configuration
// file at path. A missing workspaces_path is a validation error since
// every orchestrator's private workspace is derived from it.
func LoadGlobalConfig(path string) (*model.GlobalConfig, error) {
	var cfg model.GlobalConfig
	if err := decodeStrict(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.WorkspacesPath == "" {
		return nil, &direrr.ConfigValidationError{Path: path, Reason: "workspaces_path is required"}
	}
	for name, ref := range cfg.Orchestrators {
		for _, shared := range ref.SharedAccess {
			if _, ok := cfg.SharedWorkspaces[shared]; !ok {
				return nil, &direrr.ConfigValidationError{
					Path:   path,
					Reason: "orchestrator " + name + " references unknown shared workspace " + shared,
				}
			}
		}
	}
	return &cfg, nil
}

// LoadOrchestratorConfig reads and strictly decodes an
// orchestrator.yaml at path. A legacy per-agent shared_access field
// under an agents[] entry is rejected automatically: AgentEntry
// declares no such field, so KnownFields(true) fails the decode.
func LoadOrchestratorConfig(path string) (*model.OrchestratorConfig, error) {
	var cfg model.OrchestratorConfig
	if err := decodeStrict(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.ID == "" {
		return nil, &direrr.ConfigValidationError{Path: path, Reason: "orchestrator id is required"}
	}
	if cfg.SelectorAgent == "" {
		return nil, &direrr.ConfigValidationError{Path: path, Reason: "selector_agent is required"}
	}
	if cfg.DefaultWorkflow == "" {
		return nil, &direrr.ConfigValidationError{Path: path, Reason: "default_workflow is required"}
	}
	if _, ok := cfg.Agents[cfg.SelectorAgent]; !ok {
		return nil, &direrr.ConfigValidationError{Path: path, Reason: "selector_agent " + cfg.SelectorAgent + " is not declared in agents"}
	}

	cfg = cfg.WithDefaults()
	return &cfg, nil
}

func decodeStrict(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &direrr.IoError{Path: path, Cause: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return &direrr.ParseError{Path: path, Cause: err}
	}
	return nil
}
