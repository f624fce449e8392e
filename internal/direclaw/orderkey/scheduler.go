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

// Package orderkey implements the per-ordering-key scheduler (spec
// §4.3 / §5): at most one in-flight job per OrderingKey at a time,
// bounded overall concurrency, and adaptive poll backoff when the
// queue is empty.
package orderkey

import (
	"sync"
	"sync/atomic"
	"time"
)

// Defaults mirror the worker primitives of the reference runtime:
// four concurrent workers, polling between 100ms and 1000ms, with a
// 200ms cooperative-sleep granularity so a stop signal is never
// delayed by more than that.
const (
	DefaultMaxConcurrency = 4
	DefaultMinPollInterval = 100 * time.Millisecond
	DefaultMaxPollInterval = 1000 * time.Millisecond
	sleepGranularity       = 200 * time.Millisecond
)

// Scheduler tracks which ordering keys currently have an in-flight
// job and enforces the engine's overall concurrency ceiling.
type Scheduler struct {
	mu             sync.Mutex
	active         map[string]bool
	maxConcurrency int
	minPoll        time.Duration
	maxPoll        time.Duration
}

// New returns a Scheduler with the given concurrency and poll bounds.
// A zero maxConcurrency, minPoll, or maxPoll is replaced by its
// default.
func New(maxConcurrency int, minPoll, maxPoll time.Duration) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if minPoll <= 0 {
		minPoll = DefaultMinPollInterval
	}
	if maxPoll <= 0 {
		maxPoll = DefaultMaxPollInterval
	}
	return &Scheduler{
		active:         make(map[string]bool),
		maxConcurrency: maxConcurrency,
		minPoll:        minPoll,
		maxPoll:        maxPoll,
	}
}

// TryAcquire reserves key for exclusive in-flight processing. It
// fails if key is already active or the concurrency ceiling is
// reached.
func (s *Scheduler) TryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[key] {
		return false
	}
	if len(s.active) >= s.maxConcurrency {
		return false
	}
	s.active[key] = true
	return true
}

// Release frees key for future acquisition.
func (s *Scheduler) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, key)
}

// ActiveCount returns the number of ordering keys currently in
// flight.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// IsActive reports whether key currently has an in-flight job.
func (s *Scheduler) IsActive(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[key]
}

// NextPollInterval doubles the poll interval for each consecutive
// empty poll, capped at maxPoll, resetting to minPoll once work is
// found (consecutiveEmpty == 0).
func (s *Scheduler) NextPollInterval(consecutiveEmpty int) time.Duration {
	if consecutiveEmpty <= 0 {
		return s.minPoll
	}
	interval := s.minPoll
	for i := 0; i < consecutiveEmpty && interval < s.maxPoll; i++ {
		interval *= 2
	}
	if interval > s.maxPoll {
		interval = s.maxPoll
	}
	return interval
}

// SleepWithStop sleeps for total in sleepGranularity steps, checking
// stop between each one. It returns false as soon as it observes
// stop set, and true if it slept the full duration without
// interruption.
func SleepWithStop(stop *atomic.Bool, total time.Duration) bool {
	remaining := total
	for remaining > 0 {
		if stop.Load() {
			return false
		}
		step := sleepGranularity
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
		remaining -= step
	}
	return !stop.Load()
}
