// Package usage tracks how often tracked paths are touched.
package usage

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Pattern is the access record for one path.
type Pattern struct {
	Path            string    `json:"path" yaml:"path"`
	AccessCount     int       `json:"accessCount" yaml:"accessCount"`
	LastAccess      time.Time `json:"lastAccess" yaml:"lastAccess"`
	AccessFrequency float64   `json:"accessFrequency" yaml:"accessFrequency"`
}

// Tracker holds access patterns keyed by path, independently of the node store.
type Tracker struct {
	mu       sync.Mutex
	patterns map[string]Pattern
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{patterns: make(map[string]Pattern)}
}

// Record registers an access to path at ts. Frequency is
// 1/max(1, days since the previous access); the first access scores 1.
func (t *Tracker) Record(path string, ts time.Time) Pattern {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.patterns[path]
	freq := 1.0
	if ok {
		days := ts.Sub(p.LastAccess).Hours() / 24
		freq = 1 / math.Max(1, days)
	}
	p = Pattern{
		Path:            path,
		AccessCount:     p.AccessCount + 1,
		LastAccess:      ts,
		AccessFrequency: freq,
	}
	t.patterns[path] = p
	return p
}

// Get returns the pattern for path.
func (t *Tracker) Get(path string) (Pattern, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.patterns[path]
	return p, ok
}

// Move re-keys the pattern of oldPath under newPath.
func (t *Tracker) Move(oldPath, newPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.patterns[oldPath]
	if !ok {
		return
	}
	delete(t.patterns, oldPath)
	p.Path = newPath
	t.patterns[newPath] = p
}

// All returns every pattern sorted by access count descending, then path.
func (t *Tracker) All() []Pattern {
	t.mu.Lock()
	out := make([]Pattern, 0, len(t.patterns))
	for _, p := range t.patterns {
		out = append(out, p)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AccessCount != out[j].AccessCount {
			return out[i].AccessCount > out[j].AccessCount
		}
		return out[i].Path < out[j].Path
	})
	return out
}
