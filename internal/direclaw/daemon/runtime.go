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

// Package daemon wires the engine's per-claim pipeline: queue claim,
// ordering-key acquisition, orchestrator resolution, workflow
// selection, routing, and workflow execution (spec §5). It is the
// glue layer above the independently-testable C1-C12 packages.
package daemon

import (
	"fmt"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// OrchestratorRuntime bundles one orchestrator's parsed config with
// its workspace access context and the set of workflow definitions it
// may dispatch to, keyed by workflow id.
type OrchestratorRuntime struct {
	Config       model.OrchestratorConfig
	Workspace    model.WorkspaceAccessContext
	Workflows    map[string]model.WorkflowConfig
}

// resolveAgent looks up agentName in the orchestrator's declared
// agents map and returns its AgentEntry (provider and model).
func (o OrchestratorRuntime) resolveAgent(agentName string) (model.AgentEntry, error) {
	entry, ok := o.Config.Agents[agentName]
	if !ok {
		return model.AgentEntry{}, fmt.Errorf("orchestrator %s has no agent %q", o.Config.ID, agentName)
	}
	return entry, nil
}

// Registry indexes every loaded OrchestratorRuntime by orchestrator
// id and every global channel profile by its own id, so a claimed
// message's ChannelProfileID resolves straight to the orchestrator
// that should service it.
type Registry struct {
	Orchestrators   map[string]*OrchestratorRuntime
	ChannelProfiles map[string]model.ChannelProfile
}

// ResolveOrchestrator maps a channel profile id to the orchestrator
// runtime that owns it.
func (r Registry) ResolveOrchestrator(channelProfileID string) (*OrchestratorRuntime, error) {
	profile, ok := r.ChannelProfiles[channelProfileID]
	if !ok {
		return nil, fmt.Errorf("no channel profile registered for %q", channelProfileID)
	}
	orch, ok := r.Orchestrators[profile.OrchestratorID]
	if !ok {
		return nil, fmt.Errorf("channel profile %q references unknown orchestrator %q", channelProfileID, profile.OrchestratorID)
	}
	return orch, nil
}
