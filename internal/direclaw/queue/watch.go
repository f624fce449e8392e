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

package queue

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

// Watcher wakes a poller as soon as a new file lands in incoming/,
// so the orderkey scheduler's adaptive backoff is a fallback rather
// than the only signal. A Watcher failure degrades to pure polling;
// it is never fatal to the engine.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *slog.Logger
}

// NewWatcher starts watching the queue's incoming/ directory.
func (q *Queue) NewWatcher(log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &direrr.IoError{Path: q.paths.QueueIncoming(), Cause: err}
	}
	if err := fsw.Add(q.paths.QueueIncoming()); err != nil {
		fsw.Close()
		return nil, &direrr.IoError{Path: q.paths.QueueIncoming(), Cause: err}
	}
	return &Watcher{fsw: fsw, log: log}, nil
}

// Events exposes a channel that fires whenever a file is created or
// renamed into incoming/. Callers should treat every event as "maybe
// something to claim" and re-poll, rather than trusting event
// payloads directly.
func (w *Watcher) Events() <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				if w.log != nil {
					w.log.Warn("queue watcher error", "error", err)
				}
			}
		}
	}()
	return out
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
