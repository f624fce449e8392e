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
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestLoggerRuntimeAppendsJSONLine(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	logger := New(paths)

	require.NoError(t, logger.Runtime(LevelInfo, "worker_started", F("worker_id", "w1")))

	lines := readLines(t, paths.RuntimeLog())
	require.Len(t, lines, 1)
	require.Equal(t, "info", lines[0]["level"])
	require.Equal(t, "worker_started", lines[0]["event"])
	require.Equal(t, "w1", lines[0]["worker_id"])
	require.NotEmpty(t, lines[0]["timestamp"])
}

func TestLoggerSecurityAndOrchestratorWriteSeparateFiles(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	logger := New(paths)

	require.NoError(t, logger.Security(LevelWarn, "workspace_access_denied", F("path", "/etc/passwd")))
	require.NoError(t, logger.Orchestrator(LevelInfo, "selector_decision", F("action", "WorkflowStart")))

	securityLines := readLines(t, paths.SecurityLog())
	require.Len(t, securityLines, 1)
	require.Equal(t, "workspace_access_denied", securityLines[0]["event"])

	orchestratorLines := readLines(t, paths.OrchestratorLog())
	require.Len(t, orchestratorLines, 1)
	require.Equal(t, "selector_decision", orchestratorLines[0]["event"])
}

func TestLoggerAppendsMultipleLinesInOrder(t *testing.T) {
	paths := fsatomic.New(t.TempDir())
	require.NoError(t, fsatomic.Bootstrap(paths))
	logger := New(paths)

	require.NoError(t, logger.Runtime(LevelInfo, "first"))
	require.NoError(t, logger.Runtime(LevelInfo, "second"))

	lines := readLines(t, paths.RuntimeLog())
	require.Len(t, lines, 2)
	require.Equal(t, "first", lines[0]["event"])
	require.Equal(t, "second", lines[1]["event"])
}
