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

package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// Store persists ScheduleJob definitions under paths.SchedulerDir().
type Store struct {
	paths fsatomic.Paths
}

// New returns a Store rooted at paths.
func New(paths fsatomic.Paths) *Store {
	return &Store{paths: paths}
}

// CreateJob validates and persists a new job with a freshly minted
// JobID and an initial NextFireAt computed from now.
func (s *Store) CreateJob(job model.ScheduleJob, now time.Time) (*model.ScheduleJob, error) {
	job.JobID = uuid.NewString()
	job.State = model.ScheduleJobActive
	job.CreatedAt = now

	next, err := ComputeNextFireAt(job, now, time.Time{})
	if err != nil {
		return nil, err
	}
	job.NextFireAt = next

	if err := s.persist(job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Load reads one job by id.
func (s *Store) Load(jobID string) (*model.ScheduleJob, error) {
	path := s.paths.ScheduleJobFile(jobID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &direrr.IoError{Path: path, Cause: err}
	}
	var job model.ScheduleJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, &direrr.ParseError{Path: path, Cause: err}
	}
	return &job, nil
}

// ListEnabled returns every active, enabled job, sorted by JobID for
// deterministic iteration order.
func (s *Store) ListEnabled() ([]model.ScheduleJob, error) {
	entries, err := os.ReadDir(s.paths.SchedulerDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &direrr.IoError{Path: s.paths.SchedulerDir(), Cause: err}
	}

	var jobs []model.ScheduleJob
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		jobID := strings.TrimSuffix(entry.Name(), ".json")
		job, err := s.Load(jobID)
		if err != nil {
			return nil, err
		}
		if job.State == model.ScheduleJobActive && job.Enabled {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].JobID < jobs[j].JobID })
	return jobs, nil
}

// RecordFire updates a job's LastFiredAt/NextFireAt after it fires
// (once for each fire in a FireAll burst) and persists the result.
func (s *Store) RecordFire(job *model.ScheduleJob, firedAt time.Time) error {
	job.LastFiredAt = &firedAt
	next, err := ComputeNextFireAt(*job, firedAt, firedAt)
	if err != nil {
		return err
	}
	job.NextFireAt = next
	if next == nil {
		job.Enabled = false
	}
	return s.persist(*job)
}

// Delete soft-tombstones job: it is marked Deleted rather than
// removed, and can never be resumed.
func (s *Store) Delete(jobID string) error {
	job, err := s.Load(jobID)
	if err != nil {
		return err
	}
	job.State = model.ScheduleJobDeleted
	job.Enabled = false
	return s.persist(*job)
}

func (s *Store) persist(job model.ScheduleJob) error {
	path := s.paths.ScheduleJobFile(job.JobID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &direrr.IoError{Path: filepath.Dir(path), Cause: err}
	}
	body, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return &direrr.ParseError{Path: path, Cause: err}
	}
	return fsatomic.WriteFile(path, body, 0o644)
}
