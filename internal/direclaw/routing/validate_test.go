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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func statusFunctionSchema() model.FunctionSchema {
	return model.FunctionSchema{
		FunctionID: "workflow.status",
		ReadOnly:   true,
		Arguments: map[string]model.ArgumentSchema{
			"runId": {Type: model.ArgString, Required: true},
		},
	}
}

func TestValidateSelectorResultCommandInvokeAccepted(t *testing.T) {
	result := model.SelectorResult{
		Status:       model.SelectorSelected,
		Action:       model.ActionCommandInvoke,
		FunctionID:   "workflow.status",
		FunctionArgs: map[string]any{"runId": "run-1"},
	}
	err := ValidateSelectorResult(result, model.SelectorRequest{}, []model.FunctionSchema{statusFunctionSchema()})
	require.NoError(t, err)
}

func TestValidateSelectorResultRejectsUnknownArgument(t *testing.T) {
	result := model.SelectorResult{
		Status:       model.SelectorSelected,
		Action:       model.ActionCommandInvoke,
		FunctionID:   "workflow.status",
		FunctionArgs: map[string]any{"bogus": "x"},
	}
	err := ValidateSelectorResult(result, model.SelectorRequest{}, []model.FunctionSchema{statusFunctionSchema()})
	require.ErrorContains(t, err, "unknown argument `bogus`")
}

func TestValidateSelectorResultRejectsSelectedWorkflowNotAvailable(t *testing.T) {
	req := model.SelectorRequest{AvailableWorkflows: []string{"deploy"}}
	result := model.SelectorResult{
		Status:           model.SelectorSelected,
		Action:           model.ActionWorkflowStart,
		SelectedWorkflow: "rollback",
	}
	err := ValidateSelectorResult(result, req, nil)
	require.Error(t, err)
}

func TestValidateSelectorResultMissingRequiredNestedArgument(t *testing.T) {
	schema := model.FunctionSchema{
		FunctionID: "schedule.create",
		ReadOnly:   true,
		Arguments: map[string]model.ArgumentSchema{
			"schedule": {
				Type:     model.ArgObject,
				Required: true,
				Properties: map[string]model.ArgumentSchema{
					"cronExpr": {Type: model.ArgString, Required: true},
				},
			},
		},
	}
	result := model.SelectorResult{
		Status:     model.SelectorSelected,
		Action:     model.ActionCommandInvoke,
		FunctionID: "schedule.create",
		FunctionArgs: map[string]any{
			"schedule": map[string]any{},
		},
	}
	err := ValidateSelectorResult(result, model.SelectorRequest{}, []model.FunctionSchema{schema})
	require.ErrorContains(t, err, "schedule.cronExpr")
}

func TestValidateTargetRefRequiresChannelFields(t *testing.T) {
	err := ValidateTargetRef(model.TargetRef{}, "")
	require.Error(t, err)
}

func TestValidateTargetRefRejectsCrossOrchestrator(t *testing.T) {
	ref := model.TargetRef{ChannelProfileID: "other-org", ChannelID: "C123"}
	err := ValidateTargetRef(ref, "engineering")
	require.ErrorContains(t, err, "different orchestrator")
}

func TestValidateTargetRefAccepted(t *testing.T) {
	ref := model.TargetRef{ChannelProfileID: "engineering", ChannelID: "C123", PostingMode: model.PostingThreadReply, ThreadTS: "123.456"}
	err := ValidateTargetRef(ref, "engineering")
	require.NoError(t, err)
}
