// Package testutil builds throwaway directory trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Tree is a temporary directory populated by a test.
type Tree struct {
	t    *testing.T
	Root string
}

// NewTree creates an empty tree under t.TempDir(). The root is resolved
// through symlinks so paths compare equal to what the watcher reports.
func NewTree(t *testing.T) *Tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	return &Tree{t: t, Root: root}
}

// Path joins rel onto the tree root.
func (tr *Tree) Path(rel string) string {
	return filepath.Join(tr.Root, filepath.FromSlash(rel))
}

// Dir creates a directory (and parents) and returns its absolute path.
func (tr *Tree) Dir(rel string) string {
	tr.t.Helper()
	p := tr.Path(rel)
	if err := os.MkdirAll(p, 0o755); err != nil {
		tr.t.Fatalf("Failed to create dir %s: %v", p, err)
	}
	return p
}

// File writes content to rel and returns its absolute path.
func (tr *Tree) File(rel, content string) string {
	tr.t.Helper()
	p := tr.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		tr.t.Fatalf("Failed to create parent of %s: %v", p, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("Failed to write %s: %v", p, err)
	}
	return p
}

// SizedFile creates rel with the given apparent size. The file is sparse,
// so large sizes cost no disk space.
func (tr *Tree) SizedFile(rel string, size int64) string {
	tr.t.Helper()
	p := tr.File(rel, "")
	if err := os.Truncate(p, size); err != nil {
		tr.t.Fatalf("Failed to size %s: %v", p, err)
	}
	return p
}

// Age sets both access and modification times of rel to now minus age.
func (tr *Tree) Age(rel string, now time.Time, age time.Duration) string {
	tr.t.Helper()
	p := tr.Path(rel)
	ts := now.Add(-age)
	if err := os.Chtimes(p, ts, ts); err != nil {
		tr.t.Fatalf("Failed to set times on %s: %v", p, err)
	}
	return p
}

// Days converts a day count to a duration.
func Days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
