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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// ClaimedMessage is a message that has been moved from incoming/ to
// processing/ and decoded. The caller owns it until it calls
// CompleteSuccess or RequeueFailure.
type ClaimedMessage struct {
	IncomingPath   string
	ProcessingPath string
	Payload        model.IncomingMessage
}

// Queue is the filesystem-backed durable queue rooted at a state
// directory's queue/{incoming,processing,outgoing} layout.
type Queue struct {
	paths fsatomic.Paths
}

// New returns a Queue rooted at paths.
func New(paths fsatomic.Paths) *Queue {
	return &Queue{paths: paths}
}

// requeueCounter disambiguates concurrently requeued files that share
// a stem; it is process-global, matching the single-supervisor
// ownership model of the state directory.
var requeueCounter uint64

// ClaimOldest renames the oldest valid message in incoming/ into
// processing/ and decodes it. It returns (nil, nil) when incoming/ is
// empty. A rename race against another claimer (ErrNotExist) is not
// an error: the caller should continue to the next candidate, which
// ClaimOldest does internally. A payload that is not valid JSON, or
// that lacks isDirect, isThreadReply or isMentioned, is requeued and
// reported as a *direrr.ParseError.
func (q *Queue) ClaimOldest() (*ClaimedMessage, error) {
	candidates, err := sortedIncomingPaths(q.paths.QueueIncoming())
	if err != nil {
		return nil, err
	}

	for _, incomingPath := range candidates {
		name := filepath.Base(incomingPath)
		processingPath := filepath.Join(q.paths.QueueProcessing(), name)

		if err := os.Rename(incomingPath, processingPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &direrr.IoError{Path: incomingPath, Cause: err}
		}

		raw, err := os.ReadFile(processingPath)
		if err != nil {
			q.requeueProcessingFile(processingPath)
			return nil, &direrr.IoError{Path: processingPath, Cause: err}
		}

		var payload model.IncomingMessage
		if err := json.Unmarshal(raw, &payload); err != nil {
			q.requeueProcessingFile(processingPath)
			return nil, &direrr.ParseError{Path: processingPath, Cause: err}
		}
		var present map[string]json.RawMessage
		if err := json.Unmarshal(raw, &present); err != nil {
			q.requeueProcessingFile(processingPath)
			return nil, &direrr.ParseError{Path: processingPath, Cause: err}
		}
		for _, field := range []string{"isDirect", "isThreadReply", "isMentioned"} {
			if _, ok := present[field]; !ok {
				q.requeueProcessingFile(processingPath)
				return nil, &direrr.ParseError{Path: processingPath, Cause: fmt.Errorf("missing required field %q", field)}
			}
		}
		normalizeInboundPayload(&payload)

		return &ClaimedMessage{
			IncomingPath:   incomingPath,
			ProcessingPath: processingPath,
			Payload:        payload,
		}, nil
	}

	return nil, nil
}

// CompleteSuccess writes outgoing to queue/outgoing/ and removes the
// claimed message's processing/ file. If outgoing referenced files
// that are no longer readable, they are dropped and logger (if
// non-nil) is invoked with a human-readable note for the security
// log.
func (q *Queue) CompleteSuccess(claimed *ClaimedMessage, outgoing model.OutgoingMessage, logNote func(string)) (string, error) {
	normalized, omitted := normalizeOutgoingMessage(outgoing)
	if len(omitted) > 0 && logNote != nil {
		logNote(fmt.Sprintf("outgoing message `%s` omitted invalid/unreadable files: %v", outgoing.MessageID, omitted))
	}

	filename := outgoingFilename(outgoing.Channel, outgoing.MessageID, outgoing.Timestamp.UnixMilli())
	outPath := filepath.Join(q.paths.QueueOutgoing(), filename)

	body, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return "", &direrr.ParseError{Path: outPath, Cause: err}
	}
	if err := fsatomic.WriteFile(outPath, body, 0o644); err != nil {
		return "", err
	}
	if err := os.Remove(claimed.ProcessingPath); err != nil {
		return "", &direrr.IoError{Path: claimed.ProcessingPath, Cause: err}
	}
	return outPath, nil
}

// RequeueFailure moves a claimed message's processing/ file back to
// incoming/ under a disambiguated name so it is picked up again.
func (q *Queue) RequeueFailure(claimed *ClaimedMessage) (string, error) {
	return q.requeueProcessingFile(claimed.ProcessingPath)
}

// RecoverOnStartup moves every file left in processing/ back to
// incoming/. It runs once before the supervisor starts claiming, to
// recover from a crash that happened mid-processing.
func (q *Queue) RecoverOnStartup() (int, error) {
	entries, err := os.ReadDir(q.paths.QueueProcessing())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &direrr.IoError{Path: q.paths.QueueProcessing(), Cause: err}
	}

	recovered := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(q.paths.QueueProcessing(), entry.Name())
		if _, err := q.requeueProcessingFile(path); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

func (q *Queue) requeueProcessingFile(processingPath string) (string, error) {
	name := filepath.Base(processingPath)
	incomingPath := filepath.Join(q.paths.QueueIncoming(), uniqueRequeueName(name))
	if err := os.Rename(processingPath, incomingPath); err != nil {
		return "", &direrr.IoError{Path: processingPath, Cause: err}
	}
	return incomingPath, nil
}

func uniqueRequeueName(originalName string) string {
	ext := filepath.Ext(originalName)
	stem := originalName[:len(originalName)-len(ext)]
	if stem == "" {
		stem = "message"
	}
	if ext == "" {
		ext = ".json"
	}
	n := atomic.AddUint64(&requeueCounter, 1) - 1
	return fmt.Sprintf("%s_requeue_%d%s", stem, n, ext)
}

type timestampedPath struct {
	modified time.Time
	path     string
}

func sortedIncomingPaths(incomingDir string) ([]string, error) {
	entries, err := os.ReadDir(incomingDir)
	if err != nil {
		return nil, &direrr.IoError{Path: incomingDir, Cause: err}
	}

	var candidates []timestampedPath
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isValidQueueJSONFilename(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, &direrr.IoError{Path: filepath.Join(incomingDir, entry.Name()), Cause: err}
		}
		candidates = append(candidates, timestampedPath{
			modified: info.ModTime(),
			path:     filepath.Join(incomingDir, entry.Name()),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modified.Equal(candidates[j].modified) {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].modified.Before(candidates[j].modified)
	})

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}
