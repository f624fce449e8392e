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

// Package workflow implements the step-graph engine (spec §4.8):
// parsing WorkflowConfig, executing AgentTask/AgentReview steps, the
// review loop, and the engine's safety limits.
package workflow

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/itchyny/gojq"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

// envelopeRe matches the `[workflow_result]{...}[/workflow_result]`
// envelope an agent step's output is expected to end with.
var envelopeRe = regexp.MustCompile(`(?s)\[workflow_result\](.*?)\[/workflow_result\]`)

// Envelope is the parsed JSON body of a step's output envelope.
type Envelope struct {
	Outputs  map[string]any `json:"outputs,omitempty"`
	Decision string         `json:"decision,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// ParseEnvelope extracts and decodes the last workflow_result
// envelope in text. Text with no envelope is not an error: its
// absence simply yields a zero-value Envelope, so a step without
// declared outputs still completes normally.
func ParseEnvelope(text string) (Envelope, error) {
	matches := envelopeRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Envelope{}, nil
	}
	last := matches[len(matches)-1][1]

	var env Envelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(last)), &env); err != nil {
		return Envelope{}, &direrr.ParseError{Path: "workflow_result envelope", Cause: err}
	}
	return env, nil
}

// jqTimeout bounds a single output-file template's jq evaluation.
const jqTimeout = 1 * time.Second

// EvalJQ evaluates a jq expression against data, returning its first
// result. Used to compute the content of each outputFiles entry from
// a step's envelope outputs.
func EvalJQ(ctx context.Context, expression string, data any) (any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, &direrr.ParseError{Path: "jq expression: " + expression, Cause: err}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &direrr.ParseError{Path: "jq expression: " + expression, Cause: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, jqTimeout)
	defer cancel()

	iter := code.RunWithContext(runCtx, data)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, &direrr.ParseError{Path: "jq expression: " + expression, Cause: err}
	}
	return v, nil
}
