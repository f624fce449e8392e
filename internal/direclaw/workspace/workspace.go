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

// Package workspace resolves and enforces the filesystem roots a
// workflow step's agent is allowed to touch (spec §4.11): a private
// per-orchestrator root plus any named shared workspaces it opts
// into.
package workspace

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/diagnostics"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// ResolveAccessContext materializes the allowed root set for
// orchestratorID: its private workspace under settings.WorkspacesPath,
// plus the shared workspaces it names in sharedAccess. An unknown
// shared workspace name is a config validation error, not a silent
// skip.
func ResolveAccessContext(settings model.WorkspaceSettings, orchestratorID string, sharedAccess []string) (model.WorkspaceAccessContext, error) {
	private := filepath.Join(settings.WorkspacesPath, orchestratorID)
	roots := []string{canonicalize(private)}

	for _, name := range sharedAccess {
		root, ok := settings.SharedWorkspaces[name]
		if !ok {
			return model.WorkspaceAccessContext{}, &direrr.ConfigValidationError{
				Path:   orchestratorID,
				Reason: "unknown shared workspace: " + name,
			}
		}
		roots = append(roots, canonicalize(root))
	}

	return model.WorkspaceAccessContext{OrchestratorID: orchestratorID, AllowedRoots: roots}, nil
}

// EnforceAccess canonicalizes each path and asserts it lies under at
// least one of ctx's allowed roots. The first violation short-circuits
// with WorkspaceAccessDeniedError naming the offending path.
func EnforceAccess(ctx model.WorkspaceAccessContext, paths []string) error {
	for _, p := range paths {
		canonical := canonicalize(p)
		if !underAnyRoot(canonical, ctx.AllowedRoots) {
			diagnostics.RecordWorkspaceDenial(ctx.OrchestratorID)
			return &direrr.WorkspaceAccessDeniedError{Path: p, AllowedRoots: ctx.AllowedRoots}
		}
	}
	return nil
}

// MatchesPattern reports whether path matches one of the doublestar
// glob patterns in patterns, used for the optional per-step
// read/write allowlists layered on top of root containment.
func MatchesPattern(path string, patterns []string) (bool, error) {
	normalized := normalizeSlashes(path)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(normalizeSlashes(pattern), normalized)
		if err != nil {
			continue
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func underAnyRoot(canonicalPath string, roots []string) bool {
	for _, root := range roots {
		if canonicalPath == root {
			return true
		}
		if strings.HasPrefix(canonicalPath, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// canonicalize resolves path to a clean, absolute form without
// touching the filesystem (no symlink resolution): callers pass
// already-materialized workspace roots, so containment is a pure
// string-prefix check over Clean'd absolute paths.
func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Clean(abs)
}

func normalizeSlashes(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
