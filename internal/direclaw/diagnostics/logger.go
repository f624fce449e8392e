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

package diagnostics

import (
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
)

// Logger appends structured events to the three JSONL logs rooted
// under a state root's logs/ directory.
type Logger struct {
	paths fsatomic.Paths
}

// New returns a Logger rooted at paths.
func New(paths fsatomic.Paths) *Logger {
	return &Logger{paths: paths}
}

// Runtime records a supervisor or worker lifecycle event to
// logs/runtime.log (start, stop, crash recovery, heartbeat loss).
func (l *Logger) Runtime(level Level, event string, fields ...Field) error {
	return l.append(l.paths.RuntimeLog(), level, event, fields)
}

// Security records a rejected outbound file, workspace denial, or
// scheduler replay to logs/security.log.
func (l *Logger) Security(level Level, event string, fields ...Field) error {
	return l.append(l.paths.SecurityLog(), level, event, fields)
}

// Orchestrator records a routing decision or selector outcome to
// logs/orchestrator.log.
func (l *Logger) Orchestrator(level Level, event string, fields ...Field) error {
	return l.append(l.paths.OrchestratorLog(), level, event, fields)
}

func (l *Logger) append(path string, level Level, event string, fields []Field) error {
	payload, err := line(level, event, fields)
	if err != nil {
		return err
	}
	return fsatomic.AppendJSONLine(path, payload)
}
