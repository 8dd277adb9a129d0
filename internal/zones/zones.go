// Package zones aggregates tracked files into per-directory entropy zones
// and the overall biome summary. Everything here is recomputed from a
// store snapshot; nothing is patched incrementally.
package zones

import (
	"path/filepath"
	"sort"
	"time"

	"biome/internal/node"
	"biome/internal/scoring"
)

// Status of a zone or of the whole biome.
type Status string

const (
	StatusCritical Status = scoring.StatusCritical
	StatusWarning  Status = scoring.StatusWarning
	StatusHealthy  Status = scoring.StatusHealthy
)

// StatusFor maps an entropy value to a status: >70 critical, >50 warning.
// The theming layer uses the same mapping on the overall entropy.
func StatusFor(entropy float64) Status {
	return Status(scoring.Status(entropy))
}

// Zone is the aggregate of the files directly contained in one directory.
type Zone struct {
	Path           string  `json:"path" yaml:"path"`
	Name           string  `json:"name" yaml:"name"`
	FileCount      int     `json:"fileCount" yaml:"fileCount"`
	AverageEntropy float64 `json:"averageEntropy" yaml:"averageEntropy"`
	AverageHealth  float64 `json:"averageHealth" yaml:"averageHealth"`
	Status         Status  `json:"status" yaml:"status"`
}

type acc struct {
	count   int
	entropy int
	health  int
}

// Compute groups nodes by parent directory and returns one zone per group,
// sorted by average entropy descending, then by path.
func Compute(nodes []node.FileNode) []Zone {
	groups := make(map[string]*acc)
	for _, n := range nodes {
		dir := filepath.Dir(n.Path)
		a, ok := groups[dir]
		if !ok {
			a = &acc{}
			groups[dir] = a
		}
		a.count++
		a.entropy += n.Entropy
		a.health += n.Health
	}

	out := make([]Zone, 0, len(groups))
	for dir, a := range groups {
		avgEntropy := float64(a.entropy) / float64(a.count)
		out = append(out, Zone{
			Path:           dir,
			Name:           filepath.Base(dir),
			FileCount:      a.count,
			AverageEntropy: avgEntropy,
			AverageHealth:  float64(a.health) / float64(a.count),
			Status:         StatusFor(avgEntropy),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageEntropy != out[j].AverageEntropy {
			return out[i].AverageEntropy > out[j].AverageEntropy
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Summary is the biome-wide aggregate consumed by the theming and command layers.
type Summary struct {
	TotalFiles        int       `json:"totalFiles" yaml:"totalFiles"`
	TotalSizeBytes    int64     `json:"totalSizeBytes" yaml:"totalSizeBytes"`
	OverallEntropy    float64   `json:"overallEntropy" yaml:"overallEntropy"`
	OverallHealth     float64   `json:"overallHealth" yaml:"overallHealth"`
	Status            Status    `json:"status" yaml:"status"`
	LastScanTimestamp time.Time `json:"lastScanTimestamp" yaml:"lastScanTimestamp"`
	Zones             []Zone    `json:"zones" yaml:"zones"`
}

// Summarize builds a summary from a snapshot. An empty snapshot has
// entropy 0 and health 100.
func Summarize(nodes []node.FileNode, lastScan time.Time) Summary {
	s := Summary{
		TotalFiles:        len(nodes),
		OverallHealth:     100,
		LastScanTimestamp: lastScan,
		Zones:             Compute(nodes),
	}
	if len(nodes) > 0 {
		var entropy, health int
		for _, n := range nodes {
			s.TotalSizeBytes += n.Size
			entropy += n.Entropy
			health += n.Health
		}
		s.OverallEntropy = float64(entropy) / float64(len(nodes))
		s.OverallHealth = float64(health) / float64(len(nodes))
	}
	s.Status = StatusFor(s.OverallEntropy)
	return s
}

// Empty returns the summary of an empty biome.
func Empty() Summary {
	return Summarize(nil, time.Time{})
}
