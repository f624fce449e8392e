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

// Package fsatomic defines the canonical state-root layout and
// crash-safe atomic file writes (spec §4.1).
package fsatomic

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

// DefaultStateRootDirName is the default directory name under $HOME.
const DefaultStateRootDirName = ".direclaw"

// Paths is the canonical layout rooted at a state root directory.
type Paths struct {
	Root string
}

// New returns a Paths rooted at root.
func New(root string) Paths {
	return Paths{Root: root}
}

// DefaultRoot returns $HOME/.direclaw, failing if HOME is unset.
func DefaultRoot() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", &direrr.ConfigValidationError{Reason: "HOME environment variable is not set"}
	}
	return filepath.Join(home, DefaultStateRootDirName), nil
}

func (p Paths) QueueIncoming() string   { return filepath.Join(p.Root, "queue", "incoming") }
func (p Paths) QueueProcessing() string { return filepath.Join(p.Root, "queue", "processing") }
func (p Paths) QueueOutgoing() string   { return filepath.Join(p.Root, "queue", "outgoing") }

func (p Paths) LogsDir() string          { return filepath.Join(p.Root, "logs") }
func (p Paths) RuntimeLog() string       { return filepath.Join(p.LogsDir(), "runtime.log") }
func (p Paths) SecurityLog() string      { return filepath.Join(p.LogsDir(), "security.log") }
func (p Paths) OrchestratorLog() string  { return filepath.Join(p.LogsDir(), "orchestrator.log") }

func (p Paths) OrchestratorDir() string     { return filepath.Join(p.Root, "orchestrator") }
func (p Paths) OrchestratorMessages() string {
	return filepath.Join(p.OrchestratorDir(), "messages")
}
func (p Paths) OrchestratorArtifacts() string {
	return filepath.Join(p.OrchestratorDir(), "artifacts")
}
func (p Paths) SelectIncoming() string {
	return filepath.Join(p.OrchestratorDir(), "select", "incoming")
}
func (p Paths) SelectProcessing() string {
	return filepath.Join(p.OrchestratorDir(), "select", "processing")
}
func (p Paths) SelectResults() string {
	return filepath.Join(p.OrchestratorDir(), "select", "results")
}
func (p Paths) SelectLogs() string {
	return filepath.Join(p.OrchestratorDir(), "select", "logs")
}
func (p Paths) DiagnosticsIncoming() string {
	return filepath.Join(p.OrchestratorDir(), "diagnostics", "incoming")
}
func (p Paths) DiagnosticsProcessing() string {
	return filepath.Join(p.OrchestratorDir(), "diagnostics", "processing")
}
func (p Paths) DiagnosticsContext() string {
	return filepath.Join(p.OrchestratorDir(), "diagnostics", "context")
}
func (p Paths) DiagnosticsResults() string {
	return filepath.Join(p.OrchestratorDir(), "diagnostics", "results")
}
func (p Paths) DiagnosticsLogs() string {
	return filepath.Join(p.OrchestratorDir(), "diagnostics", "logs")
}
func (p Paths) Conversations() string {
	return filepath.Join(p.OrchestratorDir(), "conversations")
}

func (p Paths) WorkflowsRuns() string { return filepath.Join(p.Root, "workflows", "runs") }
func (p Paths) RunDir(runID string) string {
	return filepath.Join(p.WorkflowsRuns(), runID)
}
func (p Paths) RunFile(runID string) string {
	return filepath.Join(p.RunDir(runID), "run.json")
}
func (p Paths) ProgressFile(runID string) string {
	return filepath.Join(p.RunDir(runID), "progress.json")
}
func (p Paths) StepAttemptOutputsDir(runID, stepID string, attempt int) string {
	return filepath.Join(p.RunDir(runID), "steps", stepID, "attempts", strconv.Itoa(attempt), "outputs")
}

func (p Paths) ChannelsDir() string { return filepath.Join(p.Root, "channels") }
func (p Paths) ChannelCursor(channel, profile string) string {
	return filepath.Join(p.ChannelsDir(), channel, profile, "cursor.json")
}

func (p Paths) DaemonDir() string          { return filepath.Join(p.Root, "daemon") }
func (p Paths) SupervisorState() string    { return filepath.Join(p.DaemonDir(), "runtime.json") }
func (p Paths) SupervisorLock() string     { return filepath.Join(p.DaemonDir(), "supervisor.lock") }
func (p Paths) StopSignal() string         { return filepath.Join(p.DaemonDir(), "stop") }

func (p Paths) SchedulerDir() string { return filepath.Join(p.Root, "scheduler", "jobs") }
func (p Paths) ScheduleJobFile(jobID string) string {
	return filepath.Join(p.SchedulerDir(), jobID+".json")
}

// RequiredDirectories lists every directory that must exist before
// the engine starts.
func (p Paths) RequiredDirectories() []string {
	return []string{
		p.QueueIncoming(), p.QueueProcessing(), p.QueueOutgoing(),
		p.LogsDir(),
		p.OrchestratorMessages(), p.OrchestratorArtifacts(),
		p.SelectIncoming(), p.SelectProcessing(), p.SelectResults(), p.SelectLogs(),
		p.DiagnosticsIncoming(), p.DiagnosticsProcessing(), p.DiagnosticsContext(),
		p.DiagnosticsResults(), p.DiagnosticsLogs(),
		p.Conversations(),
		p.WorkflowsRuns(),
		p.ChannelsDir(),
		p.DaemonDir(),
		p.SchedulerDir(),
	}
}

// Bootstrap creates every required directory.
func Bootstrap(p Paths) error {
	for _, dir := range p.RequiredDirectories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &direrr.IoError{Path: dir, Cause: err}
		}
	}
	return nil
}
