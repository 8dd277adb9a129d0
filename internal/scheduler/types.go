// Package scheduler runs the host-owned periodic tasks: summary recompute,
// root rescans and snapshot saves. The biome core holds no timers itself.
package scheduler

import (
	"time"
)

// TaskType names the work a schedule triggers.
type TaskType string

const (
	TaskRecomputeSummary TaskType = "recompute_summary"
	TaskRescanRoots      TaskType = "rescan_roots"
	TaskSaveSnapshot     TaskType = "save_snapshot"
)

// TaskTypes lists every known task type.
var TaskTypes = []TaskType{TaskRecomputeSummary, TaskRescanRoots, TaskSaveSnapshot}

// ParseTaskType validates a task type name.
func ParseTaskType(s string) (TaskType, bool) {
	for _, t := range TaskTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Schedule is one periodic task.
type Schedule struct {
	ID           string     `json:"id"`
	TaskType     TaskType   `json:"taskType"`
	Expression   string     `json:"expression"`
	Enabled      bool       `json:"enabled"`
	NextRun      time.Time  `json:"nextRun"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastStatus   string     `json:"lastStatus,omitempty"` // "success", "failed"
	LastDuration int64      `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	RunCount     int        `json:"runCount"`

	expr *ParsedExpression
}

// NewSchedule parses expression and sets the first run relative to now.
func NewSchedule(id string, taskType TaskType, expression string, now time.Time) (*Schedule, error) {
	parsed, err := ParseExpression(expression)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		ID:         id,
		TaskType:   taskType,
		Expression: expression,
		Enabled:    true,
		NextRun:    parsed.NextRun(now),
		expr:       parsed,
	}, nil
}

// IsDue reports whether the schedule should run at now.
func (s *Schedule) IsDue(now time.Time) bool {
	return s.Enabled && !now.Before(s.NextRun)
}

// MarkRun records a finished run and advances NextRun.
func (s *Schedule) MarkRun(now time.Time, duration time.Duration, err error) {
	s.LastRun = &now
	s.LastDuration = duration.Milliseconds()
	s.RunCount++
	if err == nil {
		s.LastStatus = "success"
		s.LastError = ""
	} else {
		s.LastStatus = "failed"
		s.LastError = err.Error()
	}
	s.NextRun = s.expr.NextRun(now)
}

func (s *Schedule) clone() *Schedule {
	c := *s
	if s.LastRun != nil {
		t := *s.LastRun
		c.LastRun = &t
	}
	return &c
}
