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

// Package provider runs agent prompts through a subprocess-based LLM
// CLI (spec §4.5) and normalizes its result into a ProviderResult or
// typed ProviderError, always carrying an InvocationLog for
// diagnostics.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

var tracer = otel.Tracer("github.com/dmuso/direclaw-sub003/internal/direclaw/provider")

// Name identifies a supported subprocess-backed provider.
type Name string

const (
	ProviderAnthropic Name = "anthropic"
	ProviderOpenAI    Name = "openai"
)

// Request describes one agent prompt invocation.
type Request struct {
	AgentID          string
	Provider         Name
	Model            string
	Prompt           string
	WorkingDirectory string
	ContextFiles     []string
	TimeoutSeconds   int
}

// Result is a successful provider invocation's normalized output.
type Result struct {
	Text string
	Log  direrr.InvocationLog
}

// binaryFor maps a Name to its CLI binary, matching the
// subprocess-per-provider convention of the original runtime.
func binaryFor(p Name) (string, error) {
	switch p {
	case ProviderAnthropic:
		return "claude", nil
	case ProviderOpenAI:
		return "codex", nil
	default:
		return "", &direrr.UnknownProviderError{Provider: string(p)}
	}
}

// DefaultTimeoutSeconds is used when a Request does not set one.
const DefaultTimeoutSeconds = 900

// Runner invokes provider CLIs as subprocesses.
type Runner struct {
	// lookPath is overridable in tests so they don't depend on the
	// actual CLI binaries being installed.
	lookPath func(string) (string, error)
}

// New returns a Runner using the real exec.LookPath.
func New() *Runner {
	return &Runner{lookPath: exec.LookPath}
}

// Invoke runs req's prompt through the configured provider CLI and
// returns its parsed result, or a typed *direrr error wrapping an
// InvocationLog.
func (r *Runner) Invoke(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "provider.invoke",
		trace.WithAttributes(
			attribute.String("direclaw.agent_id", req.AgentID),
			attribute.String("direclaw.provider", string(req.Provider)),
			attribute.String("direclaw.model", req.Model),
		))
	defer span.End()

	binary, err := binaryFor(req.Provider)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log := direrr.InvocationLog{
		AgentID:          req.AgentID,
		Provider:         string(req.Provider),
		Model:            req.Model,
		WorkingDirectory: req.WorkingDirectory,
		ContextFiles:     req.ContextFiles,
	}

	resolvedBinary, err := r.lookPath(binary)
	if err != nil {
		span.SetStatus(codes.Error, "binary not found")
		return nil, &direrr.MissingBinaryError{Binary: binary, Log: log}
	}

	timeoutSeconds := req.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	args := buildArgs(req)
	log.CommandForm = binary + " " + strings.Join(args, " ")

	cmd := exec.CommandContext(runCtx, resolvedBinary, args...)
	cmd.Dir = req.WorkingDirectory
	cmd.Stdin = strings.NewReader(req.Prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	log.ExitCode = &exitCode

	if runCtx.Err() == context.DeadlineExceeded {
		log.TimedOut = true
		span.SetStatus(codes.Error, "timed out")
		return nil, &direrr.TimeoutError{TimeoutMs: int64(timeoutSeconds) * 1000, Log: log}
	}

	if runErr != nil {
		span.SetStatus(codes.Error, "non-zero exit")
		return nil, &direrr.NonZeroExitError{ExitCode: exitCode, Stderr: stderr.String(), Log: log}
	}

	text, parseErr := parseOutput(req.Provider, stdout.Bytes())
	if parseErr != nil {
		span.SetStatus(codes.Error, "parse failure")
		return nil, &direrr.ParseFailureError{Reason: parseErr.Error(), Log: log}
	}

	span.SetStatus(codes.Ok, "")
	return &Result{Text: text, Log: log}, nil
}

func buildArgs(req Request) []string {
	switch req.Provider {
	case ProviderAnthropic:
		args := []string{"--print", "--output-format", "json"}
		if req.Model != "" {
			args = append(args, "--model", req.Model)
		}
		return args
	case ProviderOpenAI:
		args := []string{"exec", "--json"}
		if req.Model != "" {
			args = append(args, "--model", req.Model)
		}
		return args
	default:
		return nil
	}
}

// anthropicCLIResponse is the shape of `claude --print --output-format json`.
type anthropicCLIResponse struct {
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
}

// openAICLIResponse is the shape of `codex exec --json`'s final line.
type openAICLIResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func parseOutput(p Name, stdout []byte) (string, error) {
	switch p {
	case ProviderAnthropic:
		var resp anthropicCLIResponse
		if err := json.Unmarshal(stdout, &resp); err != nil {
			text := strings.TrimSpace(string(stdout))
			if text == "" {
				return "", err
			}
			return text, nil
		}
		if resp.IsError {
			return "", &direrr.ParseFailureError{Reason: resp.Result}
		}
		return resp.Result, nil
	case ProviderOpenAI:
		lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				continue
			}
			var resp openAICLIResponse
			if err := json.Unmarshal([]byte(line), &resp); err == nil && resp.Message != "" {
				return resp.Message, nil
			}
		}
		return strings.TrimSpace(string(stdout)), nil
	default:
		return strings.TrimSpace(string(stdout)), nil
	}
}
