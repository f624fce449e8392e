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

// OrchestratorRef is one entry of the global config's orchestrators
// map: the orchestrator's private workspace override (if it doesn't
// follow the `<workspaces_path>/<id>` default) plus its shared
// workspace grants.
type OrchestratorRef struct {
	PrivateWorkspace string   `yaml:"private_workspace,omitempty" json:"privateWorkspace,omitempty"`
	SharedAccess     []string `yaml:"shared_access,omitempty" json:"sharedAccess,omitempty"`
}

// ChannelProfile is one entry of the global config's channel_profiles
// map: a named binding between a chat channel and the orchestrator
// that services it.
type ChannelProfile struct {
	Channel        string `yaml:"channel" json:"channel"`
	OrchestratorID string `yaml:"orchestrator_id" json:"orchestratorId"`
}

// MonitoringConfig configures the engine's own observability surface.
type MonitoringConfig struct {
	MetricsAddr string `yaml:"metrics_addr,omitempty" json:"metricsAddr,omitempty"`
}

// AuthSyncConfig configures periodic credential sync with an external
// secrets manager.
type AuthSyncConfig struct {
	Enabled            bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	ServiceAccountVault string `yaml:"service_account_vault,omitempty" json:"serviceAccountVault,omitempty"`
}

// MemoryConfig configures the optional long-term memory store.
type MemoryConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// GlobalConfig is the parsed shape of ~/.direclaw.yaml (spec §6).
type GlobalConfig struct {
	WorkspacesPath   string                     `yaml:"workspaces_path" json:"workspacesPath"`
	SharedWorkspaces map[string]string          `yaml:"shared_workspaces,omitempty" json:"sharedWorkspaces,omitempty"`
	Orchestrators    map[string]OrchestratorRef `yaml:"orchestrators,omitempty" json:"orchestrators,omitempty"`
	ChannelProfiles  map[string]ChannelProfile  `yaml:"channel_profiles,omitempty" json:"channelProfiles,omitempty"`
	Monitoring       MonitoringConfig           `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`
	Channels         map[string]any             `yaml:"channels,omitempty" json:"channels,omitempty"`
	AuthSync         AuthSyncConfig             `yaml:"auth_sync,omitempty" json:"authSync,omitempty"`
	Memory           MemoryConfig               `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// WorkspaceSettings projects the subset of GlobalConfig the workspace
// package needs to resolve access contexts.
func (c GlobalConfig) WorkspaceSettings() WorkspaceSettings {
	return WorkspaceSettings{
		WorkspacesPath:   c.WorkspacesPath,
		SharedWorkspaces: c.SharedWorkspaces,
	}
}
