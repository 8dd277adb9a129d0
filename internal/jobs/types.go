package jobs

import (
	"encoding/json"
)

// ScanScope is the scope of a scan job.
type ScanScope struct {
	Path string `json:"path"`
}

// ParseScanScope parses the scope of a scan job.
func ParseScanScope(scope json.RawMessage) (*ScanScope, error) {
	var s ScanScope
	if len(scope) == 0 {
		return &s, nil
	}
	if err := json.Unmarshal(scope, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// OrganizeScope is the scope of an organize job.
type OrganizeScope struct {
	TargetDirectory string `json:"targetDirectory"`
	Strategy        string `json:"strategy"`
	CreateBackup    bool   `json:"createBackup"`
	DryRun          bool   `json:"dryRun,omitempty"`
}

// ParseOrganizeScope parses the scope of an organize job. The strategy
// defaults to "type".
func ParseOrganizeScope(scope json.RawMessage) (*OrganizeScope, error) {
	var s OrganizeScope
	if len(scope) > 0 {
		if err := json.Unmarshal(scope, &s); err != nil {
			return nil, err
		}
	}
	if s.Strategy == "" {
		s.Strategy = "type"
	}
	return &s, nil
}

// ScheduledScope is the scope of a job started by the scheduler.
type ScheduledScope struct {
	TaskID   string `json:"taskId"`
	TaskType string `json:"taskType"`
}
