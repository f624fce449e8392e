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

// Package routing turns a validated selector result into a concrete
// engine action (spec §4.9) and validates the shapes that feed it:
// SelectorResult cross-field requirements, function argument schemas,
// and Slack target references.
package routing

import (
	"fmt"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// ValidateSelectorResult enforces the shape and cross-field rules a
// selector's JSON response must satisfy before it can be routed.
func ValidateSelectorResult(result model.SelectorResult, req model.SelectorRequest, schemas []model.FunctionSchema) error {
	if result.Status == "" {
		return &direrr.InvalidSelectorResultError{Reason: "status is required"}
	}
	if result.Status == model.SelectorDeclined {
		return nil
	}
	if result.Status != model.SelectorSelected {
		return &direrr.InvalidSelectorResultError{Reason: "unknown status: " + string(result.Status)}
	}

	switch result.Action {
	case model.ActionWorkflowStart, model.ActionWorkflowContinue:
		if result.SelectedWorkflow == "" {
			return &direrr.InvalidSelectorResultError{Reason: "selectedWorkflow is required for " + string(result.Action)}
		}
		if !contains(req.AvailableWorkflows, result.SelectedWorkflow) {
			return &direrr.InvalidSelectorResultError{Reason: "selectedWorkflow not in availableWorkflows: " + result.SelectedWorkflow}
		}

	case model.ActionWorkflowStatus:
		// runId, progress, and message are all optional; the status
		// resolution rule in routeSelectorAction fills in whichever
		// is missing.

	case model.ActionCommandInvoke:
		if result.FunctionID == "" {
			return &direrr.InvalidSelectorResultError{Reason: "functionId is required for CommandInvoke"}
		}
		schema, ok := findSchema(schemas, result.FunctionID)
		if !ok {
			return &direrr.InvalidSelectorResultError{Reason: "unknown functionId: " + result.FunctionID}
		}
		if !schema.ReadOnly {
			return &direrr.InvalidSelectorResultError{Reason: "function is not read-only: " + result.FunctionID}
		}
		if err := validateFunctionArgs(schema.Arguments, result.FunctionArgs, ""); err != nil {
			return err
		}

	default:
		return &direrr.InvalidSelectorResultError{Reason: "unknown action: " + string(result.Action)}
	}

	return nil
}

// validateFunctionArgs checks that args satisfies schema: every
// required argument present, no unknown arguments, each argument's
// type matching its declared ArgumentType. Object arguments recurse
// into their nested Properties.
func validateFunctionArgs(schema map[string]model.ArgumentSchema, args map[string]any, pathPrefix string) error {
	for name := range args {
		if _, ok := schema[name]; !ok {
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("unknown argument `%s`", qualify(pathPrefix, name))}
		}
	}

	for name, arg := range schema {
		value, present := args[name]
		if !present {
			if arg.Required {
				return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("missing required argument `%s`", qualify(pathPrefix, name))}
			}
			continue
		}
		if err := validateArgumentType(arg, value, qualify(pathPrefix, name)); err != nil {
			return err
		}
	}
	return nil
}

func validateArgumentType(arg model.ArgumentSchema, value any, path string) error {
	switch arg.Type {
	case model.ArgString:
		if _, ok := value.(string); !ok {
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` must be a string", path)}
		}
	case model.ArgNumber:
		switch value.(type) {
		case float64, int, int64:
		default:
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` must be a number", path)}
		}
	case model.ArgBool:
		if _, ok := value.(bool); !ok {
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` must be a boolean", path)}
		}
	case model.ArgArray:
		if _, ok := value.([]any); !ok {
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` must be an array", path)}
		}
	case model.ArgObject:
		nested, ok := value.(map[string]any)
		if !ok {
			return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` must be an object", path)}
		}
		if arg.Properties != nil {
			if err := validateFunctionArgs(arg.Properties, nested, path); err != nil {
				return err
			}
		}
	default:
		return &direrr.InvalidSelectorResultError{Reason: fmt.Sprintf("argument `%s` has unknown type %q", path, arg.Type)}
	}
	return nil
}

// ValidateTargetRef enforces the Slack target reference schema:
// required channelProfileId/channelId, optional threadTs/postingMode,
// and rejection of any target naming a different orchestrator than
// the one handling the route.
func ValidateTargetRef(ref model.TargetRef, orchestratorChannelProfileID string) error {
	if ref.ChannelProfileID == "" {
		return &direrr.InvalidSelectorResultError{Reason: "targetRef.channelProfileId is required"}
	}
	if ref.ChannelID == "" {
		return &direrr.InvalidSelectorResultError{Reason: "targetRef.channelId is required"}
	}
	if ref.PostingMode != "" && ref.PostingMode != model.PostingChannelPost && ref.PostingMode != model.PostingThreadReply {
		return &direrr.InvalidSelectorResultError{Reason: "targetRef.postingMode must be channel_post or thread_reply"}
	}
	if orchestratorChannelProfileID != "" && ref.ChannelProfileID != orchestratorChannelProfileID {
		return &direrr.InvalidSelectorResultError{Reason: "targetRef references a different orchestrator's channel profile"}
	}
	return nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func findSchema(schemas []model.FunctionSchema, functionID string) (model.FunctionSchema, bool) {
	for _, s := range schemas {
		if s.FunctionID == functionID {
			return s, true
		}
	}
	return model.FunctionSchema{}, false
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
