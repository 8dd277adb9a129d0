package jobs

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store keeps job records in memory. Jobs are cheap to rerun and the node
// store they act on is rebuilt by rescanning, so nothing survives a restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// CreateJob inserts a new job record.
func (s *Store) CreateJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job already exists: %s", job.ID)
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

// GetJob returns a copy of the job, or nil when it does not exist.
func (s *Store) GetJob(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.clone(), nil
}

// UpdateJob replaces the stored record of job.
func (s *Store) UpdateJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

// ListJobs returns jobs matching opts, newest first.
func (s *Store) ListJobs(opts ListJobsOptions) (*ListJobsResponse, error) {
	statuses := make(map[JobStatus]bool, len(opts.Status))
	for _, st := range opts.Status {
		statuses[st] = true
	}
	types := make(map[JobType]bool, len(opts.Type))
	for _, t := range opts.Type {
		types[t] = true
	}

	s.mu.RLock()
	var matched []*Job
	for _, job := range s.jobs {
		if len(statuses) > 0 && !statuses[job.Status] {
			continue
		}
		if len(types) > 0 && !types[job.Type] {
			continue
		}
		matched = append(matched, job)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	resp := &ListJobsResponse{Jobs: []JobSummary{}, TotalCount: len(matched)}
	for i := opts.Offset; i < len(matched) && len(resp.Jobs) < limit; i++ {
		if i < 0 {
			continue
		}
		resp.Jobs = append(resp.Jobs, matched[i].ToSummary())
	}
	return resp, nil
}

// CleanupOldJobs drops terminal jobs that completed more than retention ago.
func (s *Store) CleanupOldJobs(retention time.Duration) int {
	cutoff := time.Now().UTC().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.IsTerminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
