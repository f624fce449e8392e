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
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/log"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// DefaultGracefulStopTimeout bounds how long Run waits, once its
// context is canceled, for in-flight workers to finish before giving
// up and returning.
const DefaultGracefulStopTimeout = 30 * time.Second

// Worker is a single named unit of daemon work (queue processor,
// scheduler, channel adapter, ...). Run must return promptly once ctx
// is canceled.
type Worker struct {
	ID  string
	Run func(ctx context.Context) error
}

// Supervisor owns the worker health table and coordinates graceful
// shutdown of every registered Worker.
type Supervisor struct {
	log *slog.Logger

	mu      sync.Mutex
	health  map[string]model.WorkerHealth
	startedAt time.Time
	pid       int

	stopTimeout time.Duration
}

// New returns a Supervisor that logs through log.
func New(log *slog.Logger) *Supervisor {
	return &Supervisor{
		log:         log,
		health:      make(map[string]model.WorkerHealth),
		stopTimeout: DefaultGracefulStopTimeout,
	}
}

// Snapshot returns the current SupervisorState for persistence.
func (s *Supervisor) Snapshot() model.SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	workers := make([]model.WorkerHealth, 0, len(s.health))
	for _, h := range s.health {
		workers = append(workers, h)
	}
	return model.SupervisorState{
		PID:         s.pid,
		StartedAt:   s.startedAt,
		Workers:     workers,
		LastUpdated: time.Now(),
	}
}

func (s *Supervisor) transition(workerID string, to model.WorkerState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.health[workerID]
	from := model.WorkerStarting
	if ok {
		from = current.State
	}
	if ok && !model.ValidWorkerTransition(from, to) {
		s.log.Warn("dropped invalid worker state transition", "worker", workerID, "from", from, "to", to)
		return
	}

	now := time.Now()
	next := model.WorkerHealth{
		WorkerID:      workerID,
		State:         to,
		LastHeartbeat: now,
		StartedAt:     current.StartedAt,
	}
	if next.StartedAt.IsZero() {
		next.StartedAt = now
	}
	s.health[workerID] = next
}

// Run starts every worker concurrently and blocks until ctx is
// canceled or a worker returns a fatal error. On cancellation it waits
// up to stopTimeout for workers to exit cleanly.
func (s *Supervisor) Run(ctx context.Context, pid int, workers []Worker) error {
	s.mu.Lock()
	s.pid = pid
	s.startedAt = time.Now()
	s.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)

	for _, w := range workers {
		w := w
		s.transition(w.ID, model.WorkerStarting)
		group.Go(func() error {
			s.transition(w.ID, model.WorkerIdle)
			err := w.Run(groupCtx)
			if err != nil && groupCtx.Err() == nil {
				s.transition(w.ID, model.WorkerCrashed)
				s.log.Error("worker exited with error", "worker", w.ID, log.Error(err))
				return err
			}
			s.transition(w.ID, model.WorkerStopping)
			s.transition(w.ID, model.WorkerStopped)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		case <-time.After(s.stopTimeout):
			s.log.Warn("graceful stop timed out, workers may still be running", "timeoutSeconds", s.stopTimeout.Seconds())
			return ctx.Err()
		}
	}
}
