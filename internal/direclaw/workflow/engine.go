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

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/provider"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/runstore"
)

// AgentInvoker is the subset of provider.Runner the engine needs to
// execute a step.
type AgentInvoker interface {
	Invoke(ctx context.Context, req provider.Request) (*provider.Result, error)
}

// StepResult is one step execution's outcome, persisted under the
// run's steps/<id>/attempts/<n>/outputs/ directory by the caller.
type StepResult struct {
	StepID   string
	Attempt  int
	Text     string
	Envelope Envelope
}

// Engine executes a WorkflowConfig's step graph for a single run.
type Engine struct {
	invoker AgentInvoker
	store   *runstore.Store
	paths   fsatomic.Paths
	log     *slog.Logger
}

// New returns an Engine.
func New(invoker AgentInvoker, store *runstore.Store, paths fsatomic.Paths, log *slog.Logger) *Engine {
	return &Engine{invoker: invoker, store: store, paths: paths, log: log}
}

// AgentLookup resolves a step's agent name to the provider and model
// to invoke. It is supplied by the caller so the engine itself never
// depends on model.OrchestratorConfig directly.
type AgentLookup func(agentName string) (provider.Name, string, error)

// Run drives run from its CurrentStepID (or the workflow's entry
// step, if the run has none yet) through the step graph until it
// reaches a terminal state or hits a safety limit. When the engine
// fails the run (a safety limit, an unknown step, or a step that
// fails after retries) it records Failed and returns the cause.
func (e *Engine) Run(ctx context.Context, cfg model.WorkflowConfig, run *model.WorkflowRun, lookup AgentLookup) error {
	limits := model.WorkflowLimits{}
	if cfg.Limits != nil {
		limits = *cfg.Limits
	}
	limits = limits.WithDefaults()

	fail := func(cause error) error {
		if err := e.store.Fail(run, cause); err != nil {
			return err
		}
		return cause
	}

	runDeadline := time.Now().Add(time.Duration(limits.RunTimeoutSeconds) * time.Second)

	stepID := run.CurrentStepID
	if stepID == "" {
		entry, ok := cfg.EntryStep()
		if !ok {
			return &direrr.ConfigValidationError{Path: cfg.ID, Reason: "workflow has no entry step"}
		}
		stepID = entry.ID
	}

	if run.State == model.RunQueued {
		if err := e.store.Transition(run, model.RunRunning, stepID, 1, "run started"); err != nil {
			return err
		}
	}

	iterations := 0
	for {
		if iterations >= limits.MaxTotalIterations {
			return fail(fmt.Errorf("exceeded max total iterations (%d)", limits.MaxTotalIterations))
		}
		if time.Now().After(runDeadline) {
			return fail(fmt.Errorf("exceeded run timeout (%ds)", limits.RunTimeoutSeconds))
		}
		iterations++

		step, ok := cfg.StepByID(stepID)
		if !ok {
			return fail(fmt.Errorf("workflow %s has no step %q", cfg.ID, stepID))
		}

		result, err := e.runStepWithRetries(ctx, step, run, limits, lookup)
		if err != nil {
			return fail(err)
		}

		if err := e.persistStepResult(run.RunID, step, result); err != nil {
			return fail(err)
		}

		switch step.Type {
		case model.StepAgentReview:
			next := step.OnReject
			if result.Envelope.Decision == "approve" {
				next = step.OnApprove
			}
			if next == "" {
				return fail(fmt.Errorf("review step %s produced no next step", step.ID))
			}
			stepID = next

		default:
			if step.Next == "" {
				return e.store.Transition(run, model.RunCompleted, step.ID, run.CurrentAttempt, "workflow reached its final step")
			}
			stepID = step.Next
		}

		if err := e.store.Transition(run, model.RunRunning, stepID, 1, "advanced to next step"); err != nil {
			return err
		}
	}
}

func (e *Engine) runStepWithRetries(ctx context.Context, step model.WorkflowStep, run *model.WorkflowRun, limits model.WorkflowLimits, lookup AgentLookup) (StepResult, error) {
	stepLimits := limits
	if step.Limits != nil {
		if step.Limits.TimeoutSeconds > 0 {
			stepLimits.StepTimeoutSeconds = step.Limits.TimeoutSeconds
		}
		if step.Limits.MaxRetries > 0 {
			stepLimits.MaxRetries = step.Limits.MaxRetries
		}
	}

	providerName, modelName, err := lookup(step.Agent)
	if err != nil {
		return StepResult{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= stepLimits.MaxRetries+1; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, time.Duration(stepLimits.StepTimeoutSeconds)*time.Second)
		res, err := e.invoker.Invoke(stepCtx, provider.Request{
			AgentID:        step.Agent,
			Provider:       providerName,
			Model:          modelName,
			Prompt:         step.Prompt,
			TimeoutSeconds: stepLimits.StepTimeoutSeconds,
		})
		cancel()

		if err != nil {
			lastErr = err
			if !direrr.Retryable(err) {
				break
			}
			e.log.Warn("step invocation failed, retrying", "step", step.ID, "attempt", attempt, "error", err)
			continue
		}

		env, err := ParseEnvelope(res.Text)
		if err != nil {
			lastErr = err
			continue
		}
		return StepResult{StepID: step.ID, Attempt: attempt, Text: res.Text, Envelope: env}, nil
	}

	return StepResult{}, fmt.Errorf("step %s failed after retries: %w", step.ID, lastErr)
}

// persistStepResult writes a step attempt's raw text and any
// output_files the step declares under the run's
// steps/<id>/attempts/<n>/outputs/ directory, resolving each output
// file's jq template against the step's parsed envelope outputs.
func (e *Engine) persistStepResult(runID string, step model.WorkflowStep, result StepResult) error {
	outputsDir := e.paths.StepAttemptOutputsDir(runID, step.ID, result.Attempt)
	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		return &direrr.IoError{Path: outputsDir, Cause: err}
	}

	rawPath := filepath.Join(outputsDir, "raw.txt")
	if err := fsatomic.WriteFile(rawPath, []byte(result.Text), 0o644); err != nil {
		return err
	}

	for filename, expression := range step.OutputFiles {
		value, err := EvalJQ(context.Background(), expression, map[string]any{
			"outputs": result.Envelope.Outputs,
		})
		if err != nil {
			return err
		}

		var content []byte
		switch v := value.(type) {
		case nil:
			content = nil
		case string:
			content = []byte(v)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return &direrr.ParseError{Path: filename, Cause: err}
			}
			content = encoded
		}

		if err := fsatomic.WriteFile(filepath.Join(outputsDir, filename), content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
