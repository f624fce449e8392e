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

// Package runstore persists WorkflowRun records to run.json/
// progress.json under the workflows/runs/<runID>/ directory and
// enforces the run state machine on every transition (spec §4.7).
package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// Store is the filesystem-backed run store.
type Store struct {
	paths fsatomic.Paths
}

// New returns a Store rooted at paths.
func New(paths fsatomic.Paths) *Store {
	return &Store{paths: paths}
}

// NewRun creates and persists a fresh WorkflowRun in the Queued
// state, assigning it a new run id.
func (s *Store) NewRun(workflowID string, inputs map[string]any, channelProfileID, sourceMessageID string) (*model.WorkflowRun, error) {
	now := time.Now().UTC()
	run := &model.WorkflowRun{
		RunID:            uuid.NewString(),
		WorkflowID:       workflowID,
		State:            model.RunQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
		ChannelProfileID: channelProfileID,
		SourceMessageID:  sourceMessageID,
		Inputs:           inputs,
	}
	if err := s.persist(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Load reads a run.json from disk.
func (s *Store) Load(runID string) (*model.WorkflowRun, error) {
	path := s.paths.RunFile(runID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &direrr.IoError{Path: path, Cause: err}
	}
	var run model.WorkflowRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, &direrr.ParseError{Path: path, Cause: err}
	}
	return &run, nil
}

// Transition validates and applies a state transition, appending a
// HistoryEntry and persisting both run.json and progress.json. It
// refuses any transition not allowed by model.ValidRunTransition.
func (s *Store) Transition(run *model.WorkflowRun, to model.RunState, stepID string, attempt int, note string) error {
	if !model.ValidRunTransition(run.State, to) {
		return &direrr.InvalidRunTransitionError{RunID: run.RunID, From: string(run.State), To: string(to)}
	}
	now := time.Now().UTC()
	run.History = append(run.History, model.HistoryEntry{
		From: run.State, To: to, At: now, StepID: stepID, Attempt: attempt, Note: note,
	})
	run.State = to
	run.UpdatedAt = now
	if stepID != "" {
		run.CurrentStepID = stepID
	}
	if attempt > 0 {
		run.CurrentAttempt = attempt
	}
	return s.persist(run)
}

// Fail transitions run to Failed, recording err's message.
func (s *Store) Fail(run *model.WorkflowRun, err error) error {
	run.Error = err.Error()
	return s.Transition(run, model.RunFailed, run.CurrentStepID, run.CurrentAttempt, "")
}

func (s *Store) persist(run *model.WorkflowRun) error {
	runDir := s.paths.RunDir(run.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return &direrr.IoError{Path: runDir, Cause: err}
	}

	body, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return &direrr.ParseError{Path: s.paths.RunFile(run.RunID), Cause: err}
	}
	if err := fsatomic.WriteFile(s.paths.RunFile(run.RunID), body, 0o644); err != nil {
		return err
	}

	progress := run.Snapshot()
	progressBody, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return &direrr.ParseError{Path: s.paths.ProgressFile(run.RunID), Cause: err}
	}
	return fsatomic.WriteFile(s.paths.ProgressFile(run.RunID), progressBody, 0o644)
}

// LatestRunForSourceMessage scans workflows/runs/ for the most
// recently created run whose SourceMessageID matches messageID.
func (s *Store) LatestRunForSourceMessage(messageID string) (*model.WorkflowRun, error) {
	return s.latestMatching(func(r *model.WorkflowRun) bool { return r.SourceMessageID == messageID })
}

// LatestRunForConversation scans workflows/runs/ for the most
// recently created run whose ChannelProfileID matches
// channelProfileID and whose Inputs carry a "conversationId" equal to
// conversationID.
func (s *Store) LatestRunForConversation(channelProfileID, conversationID string) (*model.WorkflowRun, error) {
	return s.latestMatching(func(r *model.WorkflowRun) bool {
		if r.ChannelProfileID != channelProfileID {
			return false
		}
		cid, _ := r.Inputs["conversationId"].(string)
		return cid == conversationID
	})
}

// HasUnresolvedRun reports whether any non-terminal run exists for
// workflowID, satisfying scheduler.OverlapChecker for jobs with
// allowOverlap=false.
func (s *Store) HasUnresolvedRun(workflowID string) (bool, error) {
	run, err := s.latestMatching(func(r *model.WorkflowRun) bool {
		return r.WorkflowID == workflowID && !r.State.IsTerminal()
	})
	if err != nil {
		return false, err
	}
	return run != nil, nil
}

func (s *Store) latestMatching(pred func(*model.WorkflowRun) bool) (*model.WorkflowRun, error) {
	root := s.paths.WorkflowsRuns()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &direrr.IoError{Path: root, Cause: err}
	}

	var best *model.WorkflowRun
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), "run.json")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var run model.WorkflowRun
		if err := json.Unmarshal(raw, &run); err != nil {
			continue
		}
		if !pred(&run) {
			continue
		}
		if best == nil || run.CreatedAt.After(best.CreatedAt) {
			r := run
			best = &r
		}
	}
	return best, nil
}
