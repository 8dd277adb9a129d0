package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	biomeerrors "biome/internal/errors"
	"biome/internal/paths"
)

// Watch starts a passive fsnotify watch on root and on its subdirectories
// down to Config.MaxDepth. Watching an already watched root is a no-op; a
// closed root is reopened.
func (c *Coordinator) Watch(root string) error {
	root = cleanAbs(root)

	c.mu.Lock()
	defer c.mu.Unlock()

	if rw, ok := c.roots[root]; ok && rw.state == Watching {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return biomeerrors.New(biomeerrors.WatchFailed, "failed to create watcher for "+root, err)
	}
	rw := &rootWatch{
		path:  root,
		state: Watching,
		fsw:   fsw,
		dirs:  make(map[string]bool),
	}
	if err := c.addWatches(rw, root); err != nil {
		_ = fsw.Close()
		return biomeerrors.New(biomeerrors.WatchFailed, "failed to watch "+root, err)
	}
	c.roots[root] = rw

	c.wg.Add(1)
	go c.run(rw)

	c.logger.Info("Watching root", "path", root, "dirs", len(rw.dirs))
	return nil
}

// Unwatch closes the watch on root. The root stays registered in the
// Closed state so scans running beneath it abandon at their next step.
func (c *Coordinator) Unwatch(root string) {
	root = cleanAbs(root)

	c.mu.Lock()
	rw, ok := c.roots[root]
	if !ok || rw.state != Watching {
		c.mu.Unlock()
		return
	}
	rw.state = Closed
	c.mu.Unlock()

	if err := rw.fsw.Close(); err != nil {
		c.logger.Warn("Failed to close watcher", "path", root, "error", err)
	}
	c.logger.Info("Stopped watching root", "path", root)
}

// addWatches registers dir and its non-ignored subdirectories within MaxDepth.
// Only a failure on the root itself is returned.
func (c *Coordinator) addWatches(rw *rootWatch, dir string) error {
	depth := paths.RelDepth(dir, rw.path)
	if depth < 0 || depth > c.config.MaxDepth {
		return nil
	}
	if err := rw.fsw.Add(dir); err != nil {
		if dir == rw.path {
			return err
		}
		c.logger.Debug("Failed to watch directory", "path", dir, "error", err)
		return nil
	}
	rw.mu.Lock()
	rw.dirs[dir] = true
	rw.mu.Unlock()

	if depth == c.config.MaxDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Debug("Failed to list directory", "path", dir, "error", err)
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() || c.ignored(entry.Name()) {
			continue
		}
		_ = c.addWatches(rw, filepath.Join(dir, entry.Name()))
	}
	return nil
}

// run pumps fsnotify events for one root until its watcher is closed.
func (c *Coordinator) run(rw *rootWatch) {
	defer c.wg.Done()
	for {
		select {
		case ev, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			c.translate(rw, ev)
		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			// no retry; supervision is left to the host
			c.logger.Error("Watch failure", "root", rw.path, "error", err)
		}
	}
}

// translate maps one fsnotify event onto the event enum.
func (c *Coordinator) translate(rw *rootWatch, ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)
	if c.ignored(filepath.Base(name)) {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Lstat(name)
		if err != nil {
			return
		}
		switch {
		case info.IsDir():
			_ = c.addWatches(rw, name)
			c.Dispatch(Event{Kind: DirAdded, Path: name})
		case info.Mode().IsRegular():
			c.Dispatch(Event{Kind: Added, Path: name})
		}
	case ev.Has(fsnotify.Write):
		c.Dispatch(Event{Kind: Changed, Path: name})
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if rw.forgetDir(name) {
			c.Dispatch(Event{Kind: DirRemoved, Path: name})
		} else {
			c.Dispatch(Event{Kind: Removed, Path: name})
		}
	}
}

// forgetDir drops dir and everything beneath it from the watched set and
// reports whether dir itself was watched.
func (rw *rootWatch) forgetDir(dir string) bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	watched := rw.dirs[dir]
	prefix := paths.DirPrefix(dir)
	for d := range rw.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(rw.dirs, d)
		}
	}
	return watched
}

func (c *Coordinator) ignored(name string) bool {
	return paths.ShouldIgnore(name, c.config.IgnoreNames, c.config.IgnoreHidden)
}

func cleanAbs(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
