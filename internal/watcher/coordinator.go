package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"biome/internal/node"
	"biome/internal/paths"
	"biome/internal/usage"
)

// Config contains watcher configuration
type Config struct {
	// MaxDepth is how many directory levels below a root get a passive watch.
	MaxDepth     int
	IgnoreNames  []string
	IgnoreHidden bool
	// RecomputeDebounce is the quiet period before OnMutate fires. Zero
	// calls OnMutate synchronously after every mutation.
	RecomputeDebounce time.Duration
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		MaxDepth: 2,
		IgnoreNames: []string{
			"node_modules", ".git", ".vscode", ".cache",
			"temp", "tmp", "build", "dist", "bin", "obj",
		},
		IgnoreHidden:      true,
		RecomputeDebounce: 500 * time.Millisecond,
	}
}

// SubmitFunc hands a unit of background work to the host. It must not block
// on the work itself.
type SubmitFunc func(kind string, fn func(ctx context.Context) error)

// Hooks are optional callbacks for the host.
type Hooks struct {
	// OnEvent is called for every dispatched event.
	OnEvent func(Event)
	// OnMutate is called, debounced, after the store changed.
	OnMutate func()
	// OnScan is called when a directory scan finishes.
	OnScan func(ScanResult)
}

// Deps are the collaborators a Coordinator mutates.
type Deps struct {
	Store   *node.Store
	Usage   *usage.Tracker
	Factory *node.Factory
	// Submit runs directory scans triggered by DirAdded events. Nil runs
	// them on a goroutine owned by the coordinator.
	Submit SubmitFunc
	Hooks  Hooks
}

// Coordinator dispatches filesystem events onto the node store and manages
// the passive watch on each root.
type Coordinator struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	recompute *coalescer

	mu        sync.RWMutex
	roots     map[string]*rootWatch
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// rootWatch is the fsnotify backend for one root
type rootWatch struct {
	path  string
	state RootState
	fsw   *fsnotify.Watcher

	mu   sync.Mutex
	dirs map[string]bool
}

// New creates a coordinator.
func New(config Config, deps Deps, logger *slog.Logger) *Coordinator {
	if deps.Store == nil {
		deps.Store = node.NewStore()
	}
	if deps.Usage == nil {
		deps.Usage = usage.NewTracker()
	}
	if deps.Factory == nil {
		deps.Factory = node.NewFactory(nil, nil)
	}
	c := &Coordinator{
		config: config,
		deps:   deps,
		logger: logger,
		roots:  make(map[string]*rootWatch),
		done:   make(chan struct{}),
	}
	if c.deps.Submit == nil {
		c.deps.Submit = c.submitLocal
	}
	if deps.Hooks.OnMutate != nil {
		c.recompute = newCoalescer(config.RecomputeDebounce, deps.Hooks.OnMutate)
	}
	return c
}

// Store returns the node store the coordinator writes to.
func (c *Coordinator) Store() *node.Store { return c.deps.Store }

// Dispatch applies one event. It never blocks on directory scans: DirAdded
// only submits the scan.
func (c *Coordinator) Dispatch(e Event) {
	if e.Time.IsZero() {
		e.Time = c.deps.Factory.Now()
	}
	e.Path = filepath.Clean(e.Path)
	if c.deps.Hooks.OnEvent != nil {
		c.deps.Hooks.OnEvent(e)
	}

	switch e.Kind {
	case Added:
		c.handleAdded(e)
	case Changed:
		c.handleChanged(e)
	case Removed:
		// a directory below MaxDepth has no watch of its own, so its
		// removal arrives as a plain Removed for the directory path
		if c.deps.Store.Remove(e.Path) ||
			c.deps.Store.RemoveByPrefix(paths.DirPrefix(e.Path)) > 0 {
			c.mutated()
		}
	case DirAdded:
		dir := e.Path
		c.deps.Submit("scan", func(ctx context.Context) error {
			_, err := c.Scan(ctx, dir)
			return err
		})
	case DirRemoved:
		if n := c.deps.Store.RemoveByPrefix(paths.DirPrefix(e.Path)); n > 0 {
			c.logger.Debug("Directory removed", "path", e.Path, "nodes", n)
			c.mutated()
		}
	default:
		c.logger.Warn("Unknown event kind", "kind", int(e.Kind), "path", e.Path)
	}
}

func (c *Coordinator) handleAdded(e Event) {
	n, err := c.deps.Factory.Build(e.Path)
	if err != nil {
		// vanished or unreadable between event and stat
		c.logger.Debug("Skipping path", "path", e.Path, "error", err)
		return
	}
	c.deps.Store.Upsert(n, node.MergeRebuilt)
	c.mutated()
}

func (c *Coordinator) handleChanged(e Event) {
	_, ok := c.deps.Store.Update(e.Path, func(n node.FileNode) node.FileNode {
		n.AccessCount++
		n.LastAccessedAt = e.Time
		return n
	})
	if !ok {
		return
	}
	c.deps.Usage.Record(e.Path, e.Time)
	c.mutated()
}

func (c *Coordinator) mutated() {
	if c.recompute != nil {
		c.recompute.Notify()
	}
}

func (c *Coordinator) submitLocal(kind string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(context.Background()); err != nil {
			c.logger.Warn("Background work failed", "kind", kind, "error", err)
		}
	}()
}

// Start watches roots immediately and deferred roots after delay. Roots
// that do not exist are skipped. Start returns once the immediate roots are
// watched; the deferred roots are added in the background unless ctx ends first.
func (c *Coordinator) Start(ctx context.Context, roots, deferred []string, delay time.Duration) {
	c.watchAll(roots)
	if len(deferred) == 0 {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-timer.C:
		}
		c.logger.Info("Adding deferred roots", "count", len(deferred))
		c.watchAll(deferred)
	}()
}

func (c *Coordinator) watchAll(roots []string) {
	for _, root := range roots {
		if !isDir(root) {
			c.logger.Debug("Root does not exist", "path", root)
			continue
		}
		if err := c.Watch(root); err != nil {
			c.logger.Error("Failed to watch root", "path", root, "error", err)
		}
	}
}

// State returns the lifecycle state of root.
func (c *Coordinator) State(root string) RootState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rw, ok := c.roots[cleanAbs(root)]; ok {
		return rw.state
	}
	return Unwatched
}

// Roots returns the roots currently being watched, sorted.
func (c *Coordinator) Roots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.roots))
	for p, rw := range c.roots {
		if rw.state == Watching {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// owningRoot returns the registered root (in any state) that contains path.
// The innermost root wins when roots are nested.
func (c *Coordinator) owningRoot(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	best := ""
	for p := range c.roots {
		if paths.IsWithin(path, p) && len(p) > len(best) {
			best = p
		}
	}
	return best, best != ""
}

// Close stops every root, flushes a pending OnMutate and waits for
// background work started by the coordinator.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	var roots []*rootWatch
	for _, rw := range c.roots {
		roots = append(roots, rw)
	}
	c.mu.Unlock()

	for _, rw := range roots {
		c.Unwatch(rw.path)
	}
	c.wg.Wait()
	if c.recompute != nil {
		c.recompute.Flush()
	}
	return nil
}
