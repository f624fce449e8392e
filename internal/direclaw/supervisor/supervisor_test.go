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
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunReturnsNilWhenWorkersExitOnCancel(t *testing.T) {
	s := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	worker := Worker{ID: "queue-processor", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 1234, []Worker{worker}) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	snap := s.Snapshot()
	require.Equal(t, 1234, snap.PID)
	require.Len(t, snap.Workers, 1)
	require.Equal(t, "queue-processor", snap.Workers[0].WorkerID)
}

func TestRunPropagatesWorkerError(t *testing.T) {
	s := New(testLogger())
	ctx := context.Background()

	boom := errors.New("boom")
	worker := Worker{ID: "scheduler", Run: func(ctx context.Context) error {
		return boom
	}}

	err := s.Run(ctx, 1, []Worker{worker})
	require.ErrorIs(t, err, boom)
}
