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

package selector

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/provider"
)

// AgentInvoker is the subset of provider.Runner that Resolve needs.
type AgentInvoker interface {
	Invoke(ctx context.Context, req provider.Request) (*provider.Result, error)
}

// Resolver resolves a workflow choice for an IncomingMessage: lexical
// fast path first, then the selector agent with bounded retries.
type Resolver struct {
	matcher  *LexicalMatcher
	invoker  AgentInvoker
	log      *slog.Logger
	maxRetries int
}

// NewResolver returns a Resolver. matcher may be nil to disable the
// lexical fast path entirely.
func NewResolver(matcher *LexicalMatcher, invoker AgentInvoker, log *slog.Logger, maxRetries int) *Resolver {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	return &Resolver{matcher: matcher, invoker: invoker, log: log, maxRetries: maxRetries}
}

// Resolve picks a workflow ID for req. It tries the lexical fast path
// at LexicalHighPrecisionThreshold or above first; otherwise it
// invokes the selector agent, making up to maxRetries attempts in
// total (a failed invocation or an invalid/malformed result moves on
// to the next attempt) before falling back to req.DefaultWorkflow.
func (r *Resolver) Resolve(ctx context.Context, req model.SelectorRequest, agent provider.Request) (string, error) {
	if r.matcher != nil {
		if match, ok := r.matcher.Match(req.Message); ok && match.Score >= LexicalHighPrecisionThreshold {
			if slices.Contains(req.AvailableWorkflows, match.WorkflowID) {
				r.log.Debug("selector: lexical fast path matched", "workflow", match.WorkflowID, "score", match.Score)
				return match.WorkflowID, nil
			}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		req.Attempt = attempt
		agent.Prompt = renderSelectorPrompt(req)

		result, err := r.invoker.Invoke(ctx, agent)
		if err != nil {
			lastErr = err
			r.log.Warn("selector agent invocation failed", "attempt", attempt, "error", err)
			continue
		}

		selected, err := parseAndValidate(result.Text, req)
		if err != nil {
			lastErr = err
			r.log.Warn("selector agent returned invalid result", "attempt", attempt, "error", err)
			continue
		}
		return selected.WorkflowID, nil
	}

	if req.DefaultWorkflow != "" {
		r.log.Warn("selector falling back to default workflow after exhausting retries",
			"defaultWorkflow", req.DefaultWorkflow, "lastError", lastErr)
		return req.DefaultWorkflow, nil
	}
	return "", &direrr.InvalidSelectorResultError{Reason: "selector exhausted retries with no default workflow configured"}
}

func parseAndValidate(raw string, req model.SelectorRequest) (model.SelectorResult, error) {
	var result model.SelectorResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return model.SelectorResult{}, &direrr.InvalidSelectorResultError{Reason: "not valid JSON: " + err.Error()}
	}
	if result.WorkflowID == "" {
		return model.SelectorResult{}, &direrr.InvalidSelectorResultError{Reason: "missing workflowId"}
	}
	if !slices.Contains(req.AvailableWorkflows, result.WorkflowID) {
		return model.SelectorResult{}, &direrr.InvalidSelectorResultError{Reason: "workflowId not in available workflows: " + result.WorkflowID}
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return model.SelectorResult{}, &direrr.InvalidSelectorResultError{Reason: "confidence out of [0,1] range"}
	}
	return result, nil
}

func renderSelectorPrompt(req model.SelectorRequest) string {
	body, _ := json.Marshal(req)
	return string(body)
}
