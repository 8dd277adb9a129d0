// Package jobs runs long filesystem operations (scans, duplicate scans,
// organize runs) in the background and keeps a record of each run.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is where a job is in its lifecycle: queued, then running, then
// one of the terminal states.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobType selects the handler a job runs.
type JobType string

const (
	JobTypeScan          JobType = "scan"
	JobTypeDuplicates    JobType = "duplicates"
	JobTypeOrganize      JobType = "organize"
	JobTypeScheduledTask JobType = "scheduled_task"
)

// Job is the record of one background run. The runner owns the live copy;
// callers see clones from the store.
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Scope       json.RawMessage `json:"scope,omitempty"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`

	// run overrides the registered handler for this job only.
	run JobHandler
}

// NewJob returns a queued job of jobType. scope is stored JSON-encoded and
// read back by handlers with ParseScanScope and friends.
func NewJob(jobType JobType, scope any) (*Job, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if scope != nil {
		data, err := json.Marshal(scope)
		if err != nil {
			return nil, fmt.Errorf("encode %s scope: %w", jobType, err)
		}
		job.Scope = data
	}
	return job, nil
}

// terminal states are sticky: once a job settles, later Mark calls are
// ignored so a late cancel cannot overwrite a recorded result.
var terminal = map[JobStatus]bool{
	JobCompleted: true,
	JobFailed:    true,
	JobCancelled: true,
}

// IsTerminal reports whether the job has settled.
func (j *Job) IsTerminal() bool { return terminal[j.Status] }

// CanCancel reports whether the job is still queued or running.
func (j *Job) CanCancel() bool { return !j.IsTerminal() }

// MarkStarted moves a queued job to running. It is a no-op otherwise.
func (j *Job) MarkStarted() {
	if j.Status != JobQueued {
		return
	}
	now := time.Now().UTC()
	j.Status = JobRunning
	j.StartedAt = &now
}

// settle moves j into a terminal state and reports whether it did.
func (j *Job) settle(status JobStatus) bool {
	if j.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	j.Status = status
	j.CompletedAt = &now
	return true
}

// MarkCompleted settles the job with its JSON-encoded result. A result that
// does not encode leaves the job unsettled so the caller can fail it.
func (j *Job) MarkCompleted(result any) error {
	if j.IsTerminal() {
		return nil
	}
	var data json.RawMessage
	if result != nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return err
		}
	}
	j.settle(JobCompleted)
	j.Progress = 100
	j.Result = data
	return nil
}

// MarkFailed settles the job with err's message.
func (j *Job) MarkFailed(err error) {
	if j.settle(JobFailed) && err != nil {
		j.Error = err.Error()
	}
}

// MarkCancelled settles the job as cancelled.
func (j *Job) MarkCancelled() { j.settle(JobCancelled) }

// SetProgress records percent complete, clamped to 0..100.
func (j *Job) SetProgress(pct int) {
	j.Progress = min(max(pct, 0), 100)
}

// Duration is the time from start to settle, or to now while running.
func (j *Job) Duration() time.Duration {
	switch {
	case j.StartedAt == nil:
		return 0
	case j.CompletedAt == nil:
		return time.Since(*j.StartedAt)
	default:
		return j.CompletedAt.Sub(*j.StartedAt)
	}
}

// clone returns a copy that shares no mutable state with j.
func (j *Job) clone() *Job {
	c := *j
	c.Scope = append(json.RawMessage(nil), j.Scope...)
	c.Result = append(json.RawMessage(nil), j.Result...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// JobSummary is the listing view of a job, without scope or result.
type JobSummary struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func (j *Job) ToSummary() JobSummary {
	s := JobSummary{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Progress:  j.Progress,
		CreatedAt: j.CreatedAt,
		Error:     j.Error,
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

// ListJobsOptions filters ListJobs. Empty Status or Type matches all. Limit
// defaults to 20 and is capped at 100.
type ListJobsOptions struct {
	Status []JobStatus
	Type   []JobType
	Limit  int
	Offset int
}

// ListJobsResponse is one page of jobs, newest first, plus the match count.
type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	TotalCount int          `json:"totalCount"`
}
