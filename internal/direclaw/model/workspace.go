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

// WorkspaceSettings is the engine-wide workspace configuration: the
// private-workspace parent directory and the named map of shared
// workspaces an orchestrator may opt into via sharedAccess.
type WorkspaceSettings struct {
	WorkspacesPath   string            `yaml:"workspaces_path" json:"workspacesPath"`
	SharedWorkspaces map[string]string `yaml:"shared_workspaces,omitempty" json:"sharedWorkspaces,omitempty"`
}

// WorkspaceAccessContext is the materialized, per-orchestrator set of
// filesystem roots a step is allowed to touch.
type WorkspaceAccessContext struct {
	OrchestratorID string
	AllowedRoots   []string
}
