// Package biome is the service facade: it owns the node store and wires the
// watcher, scoring, duplicate scan, reorganizer, insights, background jobs,
// periodic tasks and the optional snapshot cache together.
package biome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"biome/internal/classify"
	"biome/internal/cloak"
	"biome/internal/config"
	"biome/internal/duplicates"
	biomeerrors "biome/internal/errors"
	"biome/internal/insights"
	"biome/internal/jobs"
	"biome/internal/metrics"
	"biome/internal/node"
	"biome/internal/paths"
	"biome/internal/reorganize"
	"biome/internal/scheduler"
	"biome/internal/storage"
	"biome/internal/usage"
	"biome/internal/watcher"
	"biome/internal/zones"
)

// Options configure a Service. Only Config is required.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Classifier overrides the one built from Config.Classify.
	Classifier *classify.Classifier
	// Cloaker overrides the one built from Config.Cloak.
	Cloaker cloak.Cloaker
	// Metrics defaults to a fresh registry.
	Metrics *metrics.Metrics
	// Now is the clock used for scoring and reports.
	Now func() time.Time
	// SchedulerInterval overrides how often periodic tasks are checked.
	SchedulerInterval time.Duration
}

// Service is the biome query and command surface.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
	metrics *metrics.Metrics

	store    *node.Store
	usage    *usage.Tracker
	factory  *node.Factory
	coord    *watcher.Coordinator
	dups     *duplicates.Detector
	reorg    *reorganize.Reorganizer
	analyzer *insights.Analyzer
	cloak    *cloak.Service
	runner   *jobs.Runner
	sched    *scheduler.Scheduler
	db       *storage.DB

	mu       sync.RWMutex
	summary  zones.Summary
	lastScan time.Time

	// recompute serializes snapshot-and-publish so an older summary is
	// never stored over a newer one.
	recompute sync.Mutex

	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a service from opts. Nothing is watched until Start.
func New(opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = classify.Default()
		if cfg.Classify.RulesFile != "" {
			loaded, err := classify.LoadFile(paths.ExpandHome(cfg.Classify.RulesFile))
			if err != nil {
				return nil, fmt.Errorf("load classification rules: %w", err)
			}
			classifier = loaded
		}
	}

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		now:      now,
		metrics:  m,
		store:    node.NewStore(),
		usage:    usage.NewTracker(),
		factory:  node.NewFactory(classifier, now),
		analyzer: insights.NewAnalyzer(now),
		summary:  zones.Empty(),
	}

	s.runner = jobs.NewRunner(nil, logger.With("component", "jobs"), jobs.RunnerConfig{
		QueueSize:   cfg.Jobs.QueueSize,
		WorkerCount: cfg.Jobs.Workers,
	})
	s.runner.OnFinish = func(j *jobs.Job) {
		s.metrics.RecordJob(string(j.Type), string(j.Status))
	}
	s.registerJobHandlers()

	s.coord = watcher.New(watcher.Config{
		MaxDepth:          cfg.Watch.MaxDepth,
		IgnoreNames:       cfg.Watch.IgnoreNames,
		IgnoreHidden:      cfg.Watch.IgnoreHidden,
		RecomputeDebounce: cfg.Watch.RecomputeDebounce,
	}, watcher.Deps{
		Store:   s.store,
		Usage:   s.usage,
		Factory: s.factory,
		Submit:  s.submitBackground,
		Hooks: watcher.Hooks{
			OnEvent:  func(e watcher.Event) { s.metrics.RecordEvent(e.Kind.String()) },
			OnMutate: func() { s.RecomputeSummary() },
			OnScan:   s.scanFinished,
		},
	}, logger.With("component", "watcher"))

	s.dups = duplicates.New(duplicates.Options{
		MaxFileSize:     cfg.Duplicates.MaxFileSize,
		Workers:         cfg.Duplicates.Workers,
		ReadBytesPerSec: cfg.Duplicates.ReadBytesPerSec,
	}, logger.With("component", "duplicates"))

	s.reorg = reorganize.New(s.store, s.usage, s.factory, logger.With("component", "organize"))
	s.reorg.OnComplete = func() { s.RecomputeSummary() }
	s.reorg.OnMove = s.metrics.RecordMove

	cloaker := opts.Cloaker
	if cloaker == nil && len(cfg.Cloak.Command) > 0 {
		cloaker = cloak.ExecCloaker{Command: cfg.Cloak.Command}
	}
	if cloaker != nil {
		s.cloak = cloak.NewService(s.store, cloaker, now, logger.With("component", "cloak"))
	}

	s.sched = scheduler.New(logger.With("component", "scheduler"), scheduler.Config{CheckInterval: opts.SchedulerInterval})
	if err := s.registerTasks(); err != nil {
		return nil, err
	}

	if cfg.Storage.Enabled {
		dbPath := cfg.Storage.Path
		if dbPath == "" {
			p, err := paths.GetDBPath()
			if err != nil {
				return nil, err
			}
			dbPath = p
		}
		db, err := storage.Open(paths.ExpandHome(dbPath), logger.With("component", "storage"))
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	return s, nil
}

// Start loads the snapshot cache, starts background workers and the
// scheduler, and begins watching the configured roots.
func (s *Service) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		if s.db != nil {
			if err = s.warmStart(ctx); err != nil {
				return
			}
		}
		s.runner.Start()

		roots := s.cfg.ExpandedRoots()
		deferred := s.cfg.ExpandedDeferredRoots()
		s.logger.Info("Starting biome", "roots", len(roots), "deferredRoots", len(deferred), "delay", s.cfg.StartupDelay)
		s.coord.Start(ctx, roots, deferred, s.cfg.StartupDelay)

		if s.cfg.Watch.InitialScan {
			for _, root := range s.coord.Roots() {
				if _, serr := s.SubmitScan(root); serr != nil {
					s.logger.Warn("Initial scan not queued", "path", root, "error", serr)
				}
			}
		}
		s.sched.Start(ctx)
	})
	return err
}

// Stop shuts everything down, saving a final snapshot when the cache is on.
func (s *Service) Stop(timeout time.Duration) error {
	var errs []error
	s.stopOnce.Do(func() {
		if err := s.sched.Stop(timeout); err != nil {
			errs = append(errs, err)
		}
		if err := s.coord.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.runner.Stop(timeout); err != nil {
			errs = append(errs, err)
		}
		if s.db != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := s.SaveSnapshot(ctx); err != nil {
				errs = append(errs, err)
			}
			if err := s.db.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.logger.Info("Biome stopped")
	})
	return errors.Join(errs...)
}

func (s *Service) warmStart(ctx context.Context) error {
	snap, err := s.db.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if len(snap.Nodes) == 0 {
		return nil
	}
	s.store.Reset(snap.Nodes)
	s.mu.Lock()
	s.lastScan = snap.LastScan
	s.mu.Unlock()
	s.RecomputeSummary()
	s.logger.Info("Loaded snapshot", "nodes", len(snap.Nodes), "savedAt", snap.SavedAt)
	return nil
}

// submitBackground runs watcher-initiated work on the job runner.
func (s *Service) submitBackground(kind string, fn func(ctx context.Context) error) {
	_, err := s.runner.Go(jobs.JobType(kind), nil, func(ctx context.Context, _ *jobs.Job, _ func(int)) (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		s.logger.Warn("Background work dropped", "kind", kind, "error", err)
	}
}

func (s *Service) scanFinished(r watcher.ScanResult) {
	s.metrics.RecordScan(r.Duration, r.FilesScanned)
	if r.Success {
		s.mu.Lock()
		s.lastScan = s.now()
		s.mu.Unlock()
	}
}

// ScanDirectory recursively adds every regular file under path. An
// unreadable directory yields a failed result and a SCAN_FAILED error.
func (s *Service) ScanDirectory(ctx context.Context, path string) (watcher.ScanResult, error) {
	if strings.TrimSpace(path) == "" {
		return watcher.ScanResult{}, biomeerrors.New(biomeerrors.InvalidArgument, "path is required", nil)
	}
	result, err := s.coord.Scan(ctx, paths.ExpandHome(path))
	s.RecomputeSummary()
	return result, err
}

// Organize moves the files directly inside opts.TargetDirectory into
// strategy subdirectories and recomputes the summary.
func (s *Service) Organize(ctx context.Context, opts reorganize.Options) (reorganize.Result, error) {
	if opts.Strategy == "" {
		opts.Strategy = reorganize.Strategy(s.cfg.Organize.DefaultStrategy)
	}
	opts.TargetDirectory = paths.ExpandHome(opts.TargetDirectory)
	return s.reorg.Organize(ctx, opts)
}

// GetSummary returns the last computed summary.
func (s *Service) GetSummary() zones.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// RecomputeSummary rebuilds the summary from a fresh store snapshot.
func (s *Service) RecomputeSummary() zones.Summary {
	s.recompute.Lock()
	defer s.recompute.Unlock()

	s.mu.RLock()
	lastScan := s.lastScan
	s.mu.RUnlock()

	summary := zones.Summarize(s.store.Snapshot(), lastScan)

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	byStatus := make(map[string]int)
	for _, z := range summary.Zones {
		byStatus[string(z.Status)]++
	}
	s.metrics.SetSummary(summary.TotalFiles, summary.OverallEntropy, summary.OverallHealth, byStatus)
	return summary
}

// FindDuplicates hashes every eligible tracked file and reports duplicates.
func (s *Service) FindDuplicates(ctx context.Context) ([]duplicates.Duplicate, error) {
	dups, err := s.dups.Scan(ctx, s.store.Snapshot())
	if err != nil {
		return nil, err
	}
	s.metrics.SetDuplicateGroups(duplicates.CountGroups(dups))
	return dups, nil
}

// HealthReport runs a duplicate scan and reports problem files.
func (s *Service) HealthReport(ctx context.Context) (insights.HealthReport, error) {
	dups, err := s.FindDuplicates(ctx)
	if err != nil {
		return insights.HealthReport{}, err
	}
	return s.analyzer.Health(s.store.Snapshot(), len(dups)), nil
}

// ArchiveSuggestions ranks idle files worth archiving.
func (s *Service) ArchiveSuggestions() []insights.ArchiveSuggestion {
	return s.analyzer.Archive(s.store.Snapshot())
}

// AccessPatterns groups tracked files by how they are used.
func (s *Service) AccessPatterns() insights.AccessPatterns {
	return s.analyzer.Access(s.store.Snapshot())
}

// OrganizationSuggestions proposes buckets worth organizing.
func (s *Service) OrganizationSuggestions() []insights.OrganizationSuggestion {
	return s.analyzer.Organization(s.store.Snapshot())
}

// Cloak protects a tracked file through the configured cloaker.
func (s *Service) Cloak(ctx context.Context, path string) (node.FileNode, error) {
	if s.cloak == nil {
		return node.FileNode{}, biomeerrors.New(biomeerrors.CloakFailed, "no cloak command configured", nil)
	}
	n, err := s.cloak.Cloak(ctx, paths.ExpandHome(path))
	if err != nil {
		return n, err
	}
	s.RecomputeSummary()
	return n, nil
}

// NodeFilter narrows Nodes.
type NodeFilter struct {
	// Dir keeps nodes under this directory.
	Dir      string
	Type     classify.FileType
	Category classify.Category
	Tag      string
	Limit    int
}

// Nodes returns tracked nodes matching f, ordered by path.
func (s *Service) Nodes(f NodeFilter) []node.FileNode {
	var prefix string
	if f.Dir != "" {
		prefix = paths.DirPrefix(paths.ExpandHome(f.Dir))
	}
	out := []node.FileNode{}
	for _, n := range s.store.Snapshot() {
		if prefix != "" && !strings.HasPrefix(n.Path, prefix) {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.Category != "" && n.Category != f.Category {
			continue
		}
		if f.Tag != "" && !n.HasTag(f.Tag) {
			continue
		}
		out = append(out, n)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Node returns one tracked node.
func (s *Service) Node(path string) (node.FileNode, bool) {
	return s.store.Get(paths.ExpandHome(path))
}

// UsagePatterns returns the recorded access patterns.
func (s *Service) UsagePatterns() []usage.Pattern {
	return s.usage.All()
}

// Roots returns the roots currently watched.
func (s *Service) Roots() []string {
	return s.coord.Roots()
}

// Watcher exposes the coordinator, e.g. for event injection.
func (s *Service) Watcher() *watcher.Coordinator { return s.coord }

// Jobs exposes the job runner.
func (s *Service) Jobs() *jobs.Runner { return s.runner }

// Scheduler exposes the periodic task scheduler.
func (s *Service) Scheduler() *scheduler.Scheduler { return s.sched }

// Metrics exposes the service metrics.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }
