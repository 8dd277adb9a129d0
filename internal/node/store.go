package node

import (
	"sort"
	"strings"
	"sync"
)

// Store owns every FileNode, keyed by absolute path. All mutations replace
// whole nodes under a single lock, so readers never observe a partially
// updated node.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]FileNode
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nodes: make(map[string]FileNode)}
}

// Put inserts or replaces the node at n.Path.
func (s *Store) Put(n FileNode) {
	s.mu.Lock()
	s.nodes[n.Path] = n.Clone()
	s.mu.Unlock()
}

// Upsert stores n. When n.Path is already tracked, merge(prev, n) is stored
// instead, with prev read under the same lock so no concurrent Update is
// lost. It reports whether a node was already present. merge must not call
// back into the store.
func (s *Store) Upsert(n FileNode, merge func(prev, next FileNode) FileNode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(n, merge)
}

// UpsertAll is Upsert over a batch in one critical section. It returns how
// many nodes were new.
func (s *Store) UpsertAll(nodes []FileNode, merge func(prev, next FileNode) FileNode) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, n := range nodes {
		if !s.upsertLocked(n, merge) {
			added++
		}
	}
	return added
}

func (s *Store) upsertLocked(n FileNode, merge func(prev, next FileNode) FileNode) bool {
	prev, ok := s.nodes[n.Path]
	if ok && merge != nil {
		path := n.Path
		n = merge(prev.Clone(), n)
		n.Path = path
	}
	s.nodes[n.Path] = n.Clone()
	return ok
}

// Get returns a copy of the node at path.
func (s *Store) Get(path string) (FileNode, bool) {
	s.mu.RLock()
	n, ok := s.nodes[path]
	s.mu.RUnlock()
	if !ok {
		return FileNode{}, false
	}
	return n.Clone(), true
}

// Remove deletes the node at path and reports whether one was present.
func (s *Store) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[path]; !ok {
		return false
	}
	delete(s.nodes, path)
	return true
}

// RemoveByPrefix deletes every node whose path starts with prefix and
// returns how many were removed. The match is a literal string prefix;
// pass a separator-terminated directory to avoid matching siblings.
func (s *Store) RemoveByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for p := range s.nodes {
		if strings.HasPrefix(p, prefix) {
			delete(s.nodes, p)
			removed++
		}
	}
	return removed
}

// Update applies fn to a copy of the node at path and stores the result.
// It returns false, without calling fn, when path is not tracked.
// fn must not call back into the store.
func (s *Store) Update(path string, fn func(FileNode) FileNode) (FileNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.nodes[path]
	if !ok {
		return FileNode{}, false
	}
	next := fn(cur.Clone())
	next.Path = path
	s.nodes[path] = next.Clone()
	return next, true
}

// Rekey removes oldPath and inserts n under n.Path in one step.
func (s *Store) Rekey(oldPath string, n FileNode) {
	s.mu.Lock()
	delete(s.nodes, oldPath)
	s.nodes[n.Path] = n.Clone()
	s.mu.Unlock()
}

// Len returns the number of tracked nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Snapshot returns a point-in-time copy of every node, sorted by path.
func (s *Store) Snapshot() []FileNode {
	s.mu.RLock()
	out := make([]FileNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Reset replaces the whole content of the store.
func (s *Store) Reset(nodes []FileNode) {
	next := make(map[string]FileNode, len(nodes))
	for _, n := range nodes {
		next[n.Path] = n.Clone()
	}
	s.mu.Lock()
	s.nodes = next
	s.mu.Unlock()
}
