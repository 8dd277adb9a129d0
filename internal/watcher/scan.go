package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	biomeerrors "biome/internal/errors"
	"biome/internal/node"
)

// ScanResult reports the outcome of a directory scan.
type ScanResult struct {
	Success      bool          `json:"success" yaml:"success"`
	Directory    string        `json:"directory" yaml:"directory"`
	FilesScanned int           `json:"filesScanned" yaml:"filesScanned"`
	NodesAdded   int           `json:"nodesAdded" yaml:"nodesAdded"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
}

var errRootClosed = errors.New("root is no longer watched")

// Scan walks dir recursively and puts a node for every regular file it
// finds. Hidden and ignored entries are skipped, as are files that fail to
// stat. When dir lies under a registered root, the root must still be
// watched before each directory is entered; otherwise the scan stops early
// and keeps what it already added.
//
// An unreadable dir yields a failed result and a SCAN_FAILED error.
func (c *Coordinator) Scan(ctx context.Context, dir string) (ScanResult, error) {
	start := time.Now()
	dir = cleanAbs(dir)
	result := ScanResult{Directory: dir}

	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", dir)
	}
	if err != nil {
		return c.finishScan(result, start, biomeerrors.New(biomeerrors.ScanFailed, "cannot scan "+dir, err))
	}

	root, rooted := c.owningRoot(dir)
	err = c.walk(ctx, dir, root, rooted, &result)
	if err != nil {
		return c.finishScan(result, start, biomeerrors.New(biomeerrors.ScanFailed, "scan of "+dir+" stopped", err))
	}
	result.Success = true
	return c.finishScan(result, start, nil)
}

func (c *Coordinator) finishScan(result ScanResult, start time.Time, err error) (ScanResult, error) {
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		c.logger.Warn("Scan failed", "path", result.Directory, "error", err)
	} else {
		c.logger.Debug("Scan complete",
			"path", result.Directory,
			"files", result.FilesScanned,
			"added", result.NodesAdded,
			"duration", result.Duration)
	}
	if result.FilesScanned > 0 {
		c.mutated()
	}
	if c.deps.Hooks.OnScan != nil {
		c.deps.Hooks.OnScan(result)
	}
	return result, err
}

func (c *Coordinator) walk(ctx context.Context, dir, root string, rooted bool, result *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rooted && c.State(root) != Watching {
		return errRootClosed
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == result.Directory {
			return err
		}
		c.logger.Debug("Skipping unreadable directory", "path", dir, "error", err)
		return nil
	}

	var batch []node.FileNode
	var subdirs []string
	for _, entry := range entries {
		if c.ignored(entry.Name()) {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, p)
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		result.FilesScanned++
		batch = append(batch, c.deps.Factory.FromInfo(p, info))
	}
	result.NodesAdded += c.deps.Store.UpsertAll(batch, node.MergeRebuilt)

	for _, sub := range subdirs {
		if err := c.walk(ctx, sub, root, rooted, result); err != nil {
			return err
		}
	}
	return nil
}
