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

package routing

import (
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

const noActiveRunMessage = "no active workflow run found for this conversation"

// RunResolver is the subset of runstore.Store routeSelectorAction
// needs to resolve WorkflowStatus targets.
type RunResolver interface {
	LatestRunForConversation(channelProfileID, conversationID string) (*model.WorkflowRun, error)
}

// RouteSelectorAction maps a validated SelectorResult into one of the
// engine's concrete actions. req carries the inbound message context
// (channel profile, conversation, any workflowRunId already known);
// resolver looks up the conversation's most recent run when no
// explicit run id is available.
func RouteSelectorAction(result model.SelectorResult, req model.SelectorRequest, resolver RunResolver) (model.RouteAction, error) {
	if result.Status == model.SelectorDeclined || result.Status == "" {
		return model.RouteAction{
			Kind:       model.RouteWorkflowStart,
			WorkflowID: req.DefaultWorkflow,
		}, nil
	}

	switch result.Action {
	case model.ActionWorkflowStart:
		return model.RouteAction{
			Kind:       model.RouteWorkflowStart,
			WorkflowID: result.SelectedWorkflow,
			Inputs:     result.FunctionArgs,
		}, nil

	case model.ActionWorkflowStatus:
		return resolveWorkflowStatus(result, req, resolver)

	case model.ActionCommandInvoke:
		return model.RouteAction{
			Kind:         model.RouteFunctionInvoke,
			FunctionID:   result.FunctionID,
			FunctionArgs: result.FunctionArgs,
		}, nil

	default:
		return model.RouteAction{
			Kind:       model.RouteDefaultFallback,
			WorkflowID: req.DefaultWorkflow,
		}, nil
	}
}

// resolveWorkflowStatus implements the status-resolution precedence
// rule: an explicit runId on the selector result wins; else the
// inbound message's own workflowRunId; else the most recent run for
// the conversation. If nothing resolves, the fixed human-readable
// "no active workflow run" message is returned instead of an error.
func resolveWorkflowStatus(result model.SelectorResult, req model.SelectorRequest, resolver RunResolver) (model.RouteAction, error) {
	if result.RunID != "" {
		return model.RouteAction{Kind: model.RouteWorkflowStatus, RunID: result.RunID}, nil
	}
	if req.Message.WorkflowRunID != "" {
		return model.RouteAction{Kind: model.RouteWorkflowStatus, RunID: req.Message.WorkflowRunID}, nil
	}

	run, err := resolver.LatestRunForConversation(req.Message.ChannelProfileID, req.Message.ConversationID)
	if err != nil {
		return model.RouteAction{}, err
	}
	if run == nil {
		return model.RouteAction{Kind: model.RouteWorkflowStatus, Message: noActiveRunMessage}, nil
	}
	return model.RouteAction{Kind: model.RouteWorkflowStatus, RunID: run.RunID}, nil
}
