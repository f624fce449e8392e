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

package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func TestResolveAccessContextIncludesPrivateAndSharedRoots(t *testing.T) {
	settings := model.WorkspaceSettings{
		WorkspacesPath: "/workspaces",
		SharedWorkspaces: map[string]string{
			"design-docs": "/shared/design-docs",
		},
	}
	ctx, err := ResolveAccessContext(settings, "engineering", []string{"design-docs"})
	require.NoError(t, err)
	require.Contains(t, ctx.AllowedRoots, filepath.Clean("/workspaces/engineering"))
	require.Contains(t, ctx.AllowedRoots, filepath.Clean("/shared/design-docs"))
}

func TestResolveAccessContextRejectsUnknownSharedWorkspace(t *testing.T) {
	settings := model.WorkspaceSettings{WorkspacesPath: "/workspaces"}
	_, err := ResolveAccessContext(settings, "engineering", []string{"nonexistent"})
	require.Error(t, err)
	var cfgErr *direrr.ConfigValidationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEnforceAccessAllowsPathUnderRoot(t *testing.T) {
	ctx := model.WorkspaceAccessContext{AllowedRoots: []string{filepath.Clean("/workspaces/engineering")}}
	err := EnforceAccess(ctx, []string{"/workspaces/engineering/src/main.go"})
	require.NoError(t, err)
}

func TestEnforceAccessDeniesPathOutsideRoot(t *testing.T) {
	ctx := model.WorkspaceAccessContext{AllowedRoots: []string{filepath.Clean("/workspaces/engineering")}}
	err := EnforceAccess(ctx, []string{"/etc/passwd"})
	require.Error(t, err)
	var denied *direrr.WorkspaceAccessDeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, "/etc/passwd", denied.Path)
}

func TestEnforceAccessDeniesSiblingDirectoryPrefixCollision(t *testing.T) {
	ctx := model.WorkspaceAccessContext{AllowedRoots: []string{filepath.Clean("/workspaces/eng")}}
	err := EnforceAccess(ctx, []string{"/workspaces/eng-secrets/leak.txt"})
	require.Error(t, err)
}

func TestMatchesPatternGlob(t *testing.T) {
	matched, err := MatchesPattern("src/main.go", []string{"src/**/*.go"})
	require.NoError(t, err)
	require.True(t, matched)

	matched, err = MatchesPattern("docs/readme.md", []string{"src/**/*.go"})
	require.NoError(t, err)
	require.False(t, matched)
}
