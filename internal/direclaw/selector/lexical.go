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

// Package selector resolves which workflow should handle an
// IncomingMessage: a lexical fast path first, falling back to the
// selector agent with bounded retries (spec §4.6).
package selector

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// LexicalRule binds a workflow to a boolean expr-lang expression
// evaluated against the lowercased message text and a Score awarded
// on match. Rules are authored per-orchestrator, not hardcoded.
type LexicalRule struct {
	WorkflowID string
	Expression string
	Score      float64
}

// LexicalMatcher evaluates a compiled set of LexicalRule expressions
// against an incoming message and is safe for concurrent use; each
// rule's program is compiled once at construction.
type LexicalMatcher struct {
	programs []compiledRule
}

type compiledRule struct {
	workflowID string
	score      float64
	program    *vm.Program
}

// lexicalEnv is the expr-lang evaluation environment: `message` is
// the lowercased message body; substring tests use expr-lang's
// `contains` operator (`message contains "deploy"`).
type lexicalEnv struct {
	Message string `expr:"message"`
}

// NewLexicalMatcher compiles rules. A rule whose expression fails to
// compile is skipped rather than failing the whole matcher, since one
// orchestrator's bad rule should not break selection for others.
func NewLexicalMatcher(rules []LexicalRule) (*LexicalMatcher, []error) {
	m := &LexicalMatcher{}
	var errs []error
	for _, rule := range rules {
		program, err := expr.Compile(rule.Expression, expr.Env(lexicalEnv{}), expr.AsBool())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.programs = append(m.programs, compiledRule{
			workflowID: rule.WorkflowID,
			score:      rule.Score,
			program:    program,
		})
	}
	return m, errs
}

// Default confidence thresholds (spec.md §9 Open Question, resolved
// as tunables rather than hardcoded constants).
var (
	LexicalBalancedThreshold      = 0.6
	LexicalHighPrecisionThreshold = 0.85
)

// Match evaluates every compiled rule against msg and returns the
// highest-scoring match, or (zero, false) if nothing matched.
func (m *LexicalMatcher) Match(msg model.IncomingMessage) (model.LexicalMatch, bool) {
	env := lexicalEnv{Message: strings.ToLower(msg.Message)}

	best := model.LexicalMatch{}
	found := false
	for _, rule := range m.programs {
		out, err := expr.Run(rule.program, env)
		if err != nil {
			continue
		}
		matched, ok := out.(bool)
		if !ok || !matched {
			continue
		}
		if !found || rule.score > best.Score {
			best = model.LexicalMatch{WorkflowID: rule.workflowID, Score: rule.score}
			found = true
		}
	}
	return best, found
}
