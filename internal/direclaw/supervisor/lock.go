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

// Package supervisor owns the daemon's single-instance lock, worker
// health table, and graceful shutdown (spec §4.4).
package supervisor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

// Lock guards the daemon's single-instance invariant using a
// flock-held lock file. The file is opened with O_CREATE, not created
// with O_EXCL; exclusivity comes from the flock alone. Only one
// supervisor may hold the lock for a given state root at a time.
type Lock struct {
	path string
	file *os.File
}

// NewLock returns a Lock bound to path; call Acquire to take it.
func NewLock(path string) *Lock {
	return &Lock{path: path}
}

// Acquire opens the lock file (creating it if absent), takes a
// non-blocking flock on it and writes the current PID into it. If
// another holder has the flock, it returns *direrr.AlreadyRunningError
// naming the PID read from the file. A lock file left by a crashed
// holder carries no flock, so the flock succeeds and the file is
// silently reclaimed.
func (l *Lock) Acquire() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &direrr.IoError{Path: dir, Cause: err}
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return &direrr.IoError{Path: l.path, Cause: err}
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		existingPID := readPID(l.path)
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return &direrr.AlreadyRunningError{PID: existingPID}
		}
		return &direrr.IoError{Path: l.path, Cause: err}
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return &direrr.IoError{Path: l.path, Cause: err}
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		f.Close()
		return &direrr.IoError{Path: l.path, Cause: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &direrr.IoError{Path: l.path, Cause: err}
	}

	l.file = f
	return nil
}

// Release unlocks and removes the lock file. It is a no-op if the
// lock was never acquired.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	l.file.Close()
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return &direrr.IoError{Path: l.path, Cause: err}
	}
	return nil
}

// readPID best-effort parses a PID out of the existing lock file, for
// reporting in AlreadyRunningError.
func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// ProcessAlive reports whether pid refers to a running process,
// using signal 0 which performs no action but existence/permission
// checks.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
