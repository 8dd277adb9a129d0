// Package insights derives advisory reports from a node snapshot: a health
// report, archive candidates, access patterns and organization hints.
// Nothing here mutates the store or the filesystem.
package insights

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"biome/internal/node"
	"biome/internal/scoring"
)

// Analyzer computes reports relative to a clock.
type Analyzer struct {
	now  func() time.Time
	stat func(string) (os.FileInfo, error)
}

// NewAnalyzer creates an analyzer. A nil clock uses time.Now.
func NewAnalyzer(now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{now: now, stat: os.Stat}
}

// HealthReport counts problem files across the biome.
type HealthReport struct {
	TotalFiles     int     `json:"totalFiles" yaml:"totalFiles"`
	CorruptedFiles int     `json:"corruptedFiles" yaml:"corruptedFiles"`
	DuplicateFiles int     `json:"duplicateFiles" yaml:"duplicateFiles"`
	OldFiles       int     `json:"oldFiles" yaml:"oldFiles"`
	LargeFiles     int     `json:"largeFiles" yaml:"largeFiles"`
	HealthScore    float64 `json:"healthScore" yaml:"healthScore"`
}

var expectedEmpty = []string{".gitkeep", ".empty", "placeholder"}

func isExpectedEmpty(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, s := range expectedEmpty {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// Health builds a health report. duplicateCount comes from a duplicate
// scan; a file that no longer stats or is unexpectedly empty counts as
// corrupted. The score is 100 minus the share of problem files, floored at 0.
func (a *Analyzer) Health(nodes []node.FileNode, duplicateCount int) HealthReport {
	now := a.now()
	r := HealthReport{TotalFiles: len(nodes), DuplicateFiles: duplicateCount, HealthScore: 100}

	for _, n := range nodes {
		info, err := a.stat(n.Path)
		if err != nil {
			r.CorruptedFiles++
			continue
		}
		if now.Sub(info.ModTime()) > 365*scoring.Day {
			r.OldFiles++
		}
		if info.Size() > 100*scoring.MiB {
			r.LargeFiles++
		}
		if info.Size() == 0 && !isExpectedEmpty(n.Path) {
			r.CorruptedFiles++
		}
	}

	if r.TotalFiles > 0 {
		issues := float64(r.CorruptedFiles + r.DuplicateFiles)
		r.HealthScore = max(0, 100-issues/float64(r.TotalFiles)*100)
	}
	return r
}

// ArchiveSuggestion proposes archiving one idle file.
type ArchiveSuggestion struct {
	Path        string    `json:"path" yaml:"path"`
	Priority    int       `json:"priority" yaml:"priority"`
	Reason      string    `json:"reason" yaml:"reason"`
	LastAccess  time.Time `json:"lastAccess" yaml:"lastAccess"`
	AccessCount int       `json:"accessCount" yaml:"accessCount"`
	Size        int64     `json:"size" yaml:"size"`
}

// Archive ranks idle files: priority 3 when untouched for over a year,
// 2 for over 180 days, 1 when accessed fewer than 3 times and idle for
// over 30 days. Sorted by priority descending, then path.
func (a *Analyzer) Archive(nodes []node.FileNode) []ArchiveSuggestion {
	now := a.now()
	out := []ArchiveSuggestion{}
	for _, n := range nodes {
		idle := now.Sub(n.LastAccessedAt)
		var priority int
		var reason string
		switch {
		case idle > 365*scoring.Day:
			priority, reason = 3, "Very old file with no recent access"
		case idle > 180*scoring.Day:
			priority, reason = 2, "Older file with limited recent activity"
		case n.AccessCount < 3 && idle > 30*scoring.Day:
			priority, reason = 1, "Rarely accessed file"
		default:
			continue
		}
		out = append(out, ArchiveSuggestion{
			Path:        n.Path,
			Priority:    priority,
			Reason:      reason,
			LastAccess:  n.LastAccessedAt,
			AccessCount: n.AccessCount,
			Size:        n.Size,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// AccessEntry is one file in an access pattern list.
type AccessEntry struct {
	Path        string    `json:"path" yaml:"path"`
	AccessCount int       `json:"accessCount" yaml:"accessCount"`
	LastAccess  time.Time `json:"lastAccess" yaml:"lastAccess"`
}

// AccessPatterns groups files by how they are used.
type AccessPatterns struct {
	MostAccessed     []AccessEntry `json:"mostAccessed" yaml:"mostAccessed"`
	RecentlyAccessed []AccessEntry `json:"recentlyAccessed" yaml:"recentlyAccessed"`
	NeverAccessed    []AccessEntry `json:"neverAccessed" yaml:"neverAccessed"`
}

// Access lists files accessed more than 10 times (most first), files
// accessed within the last 7 days (most recent first) and files never
// accessed since tracking began (by path).
func (a *Analyzer) Access(nodes []node.FileNode) AccessPatterns {
	weekAgo := a.now().Add(-7 * scoring.Day)
	p := AccessPatterns{
		MostAccessed:     []AccessEntry{},
		RecentlyAccessed: []AccessEntry{},
		NeverAccessed:    []AccessEntry{},
	}
	for _, n := range nodes {
		e := AccessEntry{Path: n.Path, AccessCount: n.AccessCount, LastAccess: n.LastAccessedAt}
		if n.AccessCount > 10 {
			p.MostAccessed = append(p.MostAccessed, e)
		}
		if n.LastAccessedAt.After(weekAgo) {
			p.RecentlyAccessed = append(p.RecentlyAccessed, e)
		}
		if n.AccessCount == 0 {
			p.NeverAccessed = append(p.NeverAccessed, e)
		}
	}
	sort.SliceStable(p.MostAccessed, func(i, j int) bool {
		return p.MostAccessed[i].AccessCount > p.MostAccessed[j].AccessCount
	})
	sort.SliceStable(p.RecentlyAccessed, func(i, j int) bool {
		return p.RecentlyAccessed[i].LastAccess.After(p.RecentlyAccessed[j].LastAccess)
	})
	sort.SliceStable(p.NeverAccessed, func(i, j int) bool {
		return p.NeverAccessed[i].Path < p.NeverAccessed[j].Path
	})
	return p
}
