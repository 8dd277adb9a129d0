// Package reorganize moves the files of one directory into subdirectories
// chosen by a strategy, optionally leaving a backup copy behind.
package reorganize

import (
	"path/filepath"

	biomeerrors "biome/internal/errors"
	"biome/internal/node"
	"biome/internal/scoring"
)

// Strategy selects the destination subdirectory for a file.
type Strategy string

const (
	ByType     Strategy = "type"
	ByCategory Strategy = "category"
	ByDate     Strategy = "date"
	BySize     Strategy = "size"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{ByType, ByCategory, ByDate, BySize}

// ParseStrategy validates s.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", biomeerrors.Newf(biomeerrors.InvalidStrategy, "unknown organize strategy %q", s)
}

// Size buckets.
const (
	SizeLarge  = "large"
	SizeMedium = "medium"
	SizeSmall  = "small"
)

// Subdir returns the destination subdirectory for n, relative to the
// organized directory.
func (s Strategy) Subdir(n node.FileNode) string {
	switch s {
	case ByType:
		return string(n.Type)
	case ByCategory:
		return string(n.Category)
	case ByDate:
		return filepath.Join(n.ModifiedAt.Format("2006"), n.ModifiedAt.Format("01"))
	case BySize:
		switch {
		case n.Size > 100*scoring.MiB:
			return SizeLarge
		case n.Size > 10*scoring.MiB:
			return SizeMedium
		default:
			return SizeSmall
		}
	}
	return ""
}
