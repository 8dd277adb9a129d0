// Package node holds the tracked per-file records and the store that owns them.
package node

import (
	"time"

	"biome/internal/classify"
)

// FileNode is the tracked metadata record for one filesystem path.
// FileNode values are copied in and out of the Store; mutating a copy has
// no effect until it is written back with Put or Update.
type FileNode struct {
	Path           string            `json:"path" yaml:"path"`
	Name           string            `json:"name" yaml:"name"`
	Size           int64             `json:"size" yaml:"size"`
	Type           classify.FileType `json:"type" yaml:"type"`
	Category       classify.Category `json:"category" yaml:"category"`
	Tags           []string          `json:"tags" yaml:"tags"`
	CreatedAt      time.Time         `json:"createdAt" yaml:"createdAt"`
	ModifiedAt     time.Time         `json:"modifiedAt" yaml:"modifiedAt"`
	LastAccessedAt time.Time         `json:"lastAccessedAt" yaml:"lastAccessedAt"`
	AccessCount    int               `json:"accessCount" yaml:"accessCount"`
	Health         int               `json:"health" yaml:"health"`
	Entropy        int               `json:"entropy" yaml:"entropy"`
	ContentHash    string            `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`

	Cloaked       bool      `json:"cloaked,omitempty" yaml:"cloaked,omitempty"`
	CloakedAt     time.Time `json:"cloakedAt,omitempty" yaml:"cloakedAt,omitempty"`
	IntegrityHash string    `json:"integrityHash,omitempty" yaml:"integrityHash,omitempty"`
}

// Clone returns a deep copy of n.
func (n FileNode) Clone() FileNode {
	n.Tags = append([]string(nil), n.Tags...)
	return n
}

// HasTag reports whether tag is present on the node.
func (n FileNode) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CarryState copies access bookkeeping and cloak fields from prev onto n.
// Used when a node is rebuilt for a path that was already tracked.
func (n FileNode) CarryState(prev FileNode) FileNode {
	n.AccessCount = prev.AccessCount
	if prev.LastAccessedAt.After(n.LastAccessedAt) {
		n.LastAccessedAt = prev.LastAccessedAt
	}
	n.Cloaked = prev.Cloaked
	n.CloakedAt = prev.CloakedAt
	n.IntegrityHash = prev.IntegrityHash
	if prev.Cloaked {
		// the file on disk is now the decoy; keep the pre-cloak digest
		n.ContentHash = prev.ContentHash
	}
	return n
}

// MergeRebuilt is the Store.Upsert merge for a node rebuilt from disk.
func MergeRebuilt(prev, next FileNode) FileNode { return next.CarryState(prev) }
