// Package watcher turns filesystem notifications into node store mutations.
//
// Every notification, whether it comes from the fsnotify backend, an explicit
// scan or a test, goes through Coordinator.Dispatch as an Event.
package watcher

import "time"

// EventKind is the kind of a filesystem notification.
type EventKind int

const (
	Added EventKind = iota
	Changed
	Removed
	DirAdded
	DirRemoved
)

// String returns a string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case Added:
		return "add"
	case Changed:
		return "change"
	case Removed:
		return "unlink"
	case DirAdded:
		return "addDir"
	case DirRemoved:
		return "unlinkDir"
	default:
		return "unknown"
	}
}

// Event is a single filesystem notification.
type Event struct {
	Kind EventKind
	Path string
	// Time is when the event was observed. Zero means "now".
	Time time.Time
}

// RootState is the lifecycle state of a watched root.
type RootState int

const (
	Unwatched RootState = iota
	Watching
	Closed
)

// String returns a string representation of the root state
func (s RootState) String() string {
	switch s {
	case Watching:
		return "watching"
	case Closed:
		return "closed"
	default:
		return "unwatched"
	}
}
