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

package daemon

import (
	"fmt"
	"path/filepath"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/config"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/workflow"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/workspace"
)

// workflowFileName is where BuildRegistry looks for a workflow
// definition inside an orchestrator's private workspace: a
// workflows/<id>.yaml file per entry in the orchestrator's
// workflows[] list.
func workflowFileName(privateWorkspace, workflowID string) string {
	return filepath.Join(privateWorkspace, "workflows", workflowID+".yaml")
}

// BuildRegistry loads every orchestrator named in global's
// orchestrators map: its orchestrator.yaml, its workspace access
// context, and every workflow definition it declares.
func BuildRegistry(global *model.GlobalConfig) (Registry, error) {
	registry := Registry{
		Orchestrators:   make(map[string]*OrchestratorRuntime),
		ChannelProfiles: global.ChannelProfiles,
	}

	settings := global.WorkspaceSettings()
	for id, ref := range global.Orchestrators {
		private := ref.PrivateWorkspace
		if private == "" {
			private = filepath.Join(global.WorkspacesPath, id)
		}

		cfg, err := config.LoadOrchestratorConfig(filepath.Join(private, "orchestrator.yaml"))
		if err != nil {
			return Registry{}, fmt.Errorf("loading orchestrator %q: %w", id, err)
		}

		accessCtx, err := workspace.ResolveAccessContext(settings, id, ref.SharedAccess)
		if err != nil {
			return Registry{}, fmt.Errorf("resolving workspace access for %q: %w", id, err)
		}

		workflows := make(map[string]model.WorkflowConfig, len(cfg.Workflows))
		for _, workflowID := range cfg.Workflows {
			wfCfg, err := workflow.LoadConfig(workflowFileName(private, workflowID))
			if err != nil {
				return Registry{}, fmt.Errorf("loading workflow %q for orchestrator %q: %w", workflowID, id, err)
			}
			workflows[workflowID] = *wfCfg
		}

		registry.Orchestrators[id] = &OrchestratorRuntime{
			Config:    *cfg,
			Workspace: accessCtx,
			Workflows: workflows,
		}
	}

	return registry, nil
}
