// Package scoring computes per-file health and entropy.
//
// Both scores are pure functions of file stat data, a reference time and,
// for entropy, the path depth. They are integers clamped to [0, 100].
package scoring

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	MiB = 1024 * 1024
	Day = 24 * time.Hour
)

// Health adjustments.
const (
	healthBase          = 100
	healthOldPenalty    = 20 // age > 365 days
	healthLargePenalty  = 15 // size > 100 MiB
	healthRecentBonus   = 10 // age < 7 days
	healthOldDays       = 365
	healthRecentDays    = 7
	healthLargeSizeMiB  = 100
	entropyShallowDepth = 3
)

type sizeTerm struct {
	overMiB int64
	points  int
}

type ageTerm struct {
	overDays float64
	points   int
}

// Checked top-down; the first matching threshold wins.
var entropySize = []sizeTerm{
	{50, 30},
	{10, 20},
	{1, 10},
}

var entropyAge = []ageTerm{
	{180, 40},
	{90, 30},
	{30, 20},
}

const entropyDepthPoints = 20

// Stats is the subset of file metadata the scores depend on.
type Stats struct {
	Size    int64
	ModTime time.Time
}

// AgeDays returns the fractional number of days between ModTime and now.
// A modification time in the future yields a negative age.
func (s Stats) AgeDays(now time.Time) float64 {
	return now.Sub(s.ModTime).Hours() / 24
}

// Health scores freshness and manageability. The old-file penalty, the
// large-file penalty and the recency bonus are independent and additive.
func Health(s Stats, now time.Time) int {
	age := s.AgeDays(now)
	score := healthBase
	if age > healthOldDays {
		score -= healthOldPenalty
	}
	if s.Size > healthLargeSizeMiB*MiB {
		score -= healthLargePenalty
	}
	if age < healthRecentDays {
		score += healthRecentBonus
	}
	return clamp(score)
}

// Entropy scores organizational disorder: large, stale files sitting close
// to the filesystem root score highest.
func Entropy(s Stats, depth int, now time.Time) int {
	score := 0
	for _, t := range entropySize {
		if s.Size > t.overMiB*MiB {
			score += t.points
			break
		}
	}
	age := s.AgeDays(now)
	for _, t := range entropyAge {
		if age > t.overDays {
			score += t.points
			break
		}
	}
	if depth <= entropyShallowDepth {
		score += entropyDepthPoints
	}
	return clamp(score)
}

// PathDepth counts the separator-delimited segments of the cleaned path.
// The empty segment before the leading separator of an absolute path is
// counted, so "/a/b.txt" has depth 3.
func PathDepth(path string) int {
	clean := filepath.Clean(path)
	return strings.Count(clean, string(filepath.Separator)) + 1
}

// Score is a health/entropy pair.
type Score struct {
	Health  int `json:"health"`
	Entropy int `json:"entropy"`
}

// Compute returns both scores for the file at path.
func Compute(path string, s Stats, now time.Time) Score {
	return Score{
		Health:  Health(s, now),
		Entropy: Entropy(s, PathDepth(path), now),
	}
}

// Status maps an entropy value to the theme/zone status buckets.
func Status(entropy float64) string {
	switch {
	case entropy > 70:
		return StatusCritical
	case entropy > 50:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
	StatusHealthy  = "healthy"
)

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
