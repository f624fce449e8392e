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

package fsatomic

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
)

// WriteFile writes content to path by writing a sibling temp file,
// fsyncing it, renaming it over path, then fsyncing the parent
// directory (a no-op on non-Unix platforms). Readers must treat a
// missing file as "not yet written", never as corruption.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpName := fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), time.Now().UnixNano())
	tmpPath := filepath.Join(dir, tmpName)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return &direrr.IoError{Path: tmpPath, Cause: err}
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &direrr.IoError{Path: tmpPath, Cause: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &direrr.IoError{Path: tmpPath, Cause: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &direrr.IoError{Path: tmpPath, Cause: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &direrr.IoError{Path: path, Cause: err}
	}

	if err := syncParentDir(dir); err != nil {
		return &direrr.IoError{Path: dir, Cause: err}
	}
	return nil
}

// AppendJSONLine opens path for append (creating it if absent) and
// writes line plus a trailing newline. Used for the three JSONL
// event logs (§4.12); appends are not made atomic via rename since
// concurrent single-writer append is the documented ownership model.
func AppendJSONLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &direrr.IoError{Path: filepath.Dir(path), Cause: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &direrr.IoError{Path: path, Cause: err}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return &direrr.IoError{Path: path, Cause: err}
	}
	return nil
}

func syncParentDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
