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

package supervisor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

func TestLockAcquireReleaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supervisor.lock")
	l := NewLock(path)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())

	l2 := NewLock(path)
	require.NoError(t, l2.Acquire())
	require.NoError(t, l2.Release())
}

func TestLockAcquireFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supervisor.lock")
	l1 := NewLock(path)
	require.NoError(t, l1.Acquire())
	defer l1.Release()

	l2 := NewLock(path)
	err := l2.Acquire()
	require.Error(t, err)
	var alreadyRunning *direrr.AlreadyRunningError
	require.ErrorAs(t, err, &alreadyRunning)
}
