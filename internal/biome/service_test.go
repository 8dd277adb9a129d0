package biome

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biome/internal/classify"
	"biome/internal/cloak"
	"biome/internal/config"
	biomeerrors "biome/internal/errors"
	"biome/internal/export"
	"biome/internal/jobs"
	"biome/internal/node"
	"biome/internal/reorganize"
	"biome/internal/slogutil"
	"biome/internal/testutil"
	"biome/internal/watcher"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Roots = nil
	cfg.DeferredRoots = nil
	cfg.Scheduler.Tasks = nil
	cfg.Watch.RecomputeDebounce = 0
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, opts ...func(*Options)) *Service {
	t.Helper()
	o := Options{
		Config: cfg,
		Logger: slogutil.NewDiscardLogger(),
		Now:    testutil.FixedClock(time.Now()),
	}
	for _, fn := range opts {
		fn(&o)
	}
	s, err := New(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(5 * time.Second) })
	return s
}

func TestUnlinkDirRemovesTrackedFiles(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("photos/a.jpg", "a")
	tree.File("photos/b.jpg", "b")
	tree.File("photos/c.jpg", "c")
	tree.File("photos-old/d.jpg", "d")
	tree.File("notes.txt", "n")

	s := newTestService(t, testConfig())
	result, err := s.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5, result.FilesScanned)

	before := s.GetSummary()
	require.Equal(t, 5, before.TotalFiles)
	assert.False(t, before.LastScanTimestamp.IsZero())

	s.Watcher().Dispatch(watcher.Event{Kind: watcher.DirRemoved, Path: tree.Path("photos")})

	after := s.GetSummary()
	assert.Equal(t, before.TotalFiles-3, after.TotalFiles)
	_, ok := s.Node(tree.Path("photos-old/d.jpg"))
	assert.True(t, ok, "sibling with a shared name prefix survives")
	_, ok = s.Node(tree.Path("photos/a.jpg"))
	assert.False(t, ok)
}

func TestScanDirectory_Failures(t *testing.T) {
	s := newTestService(t, testConfig())

	_, err := s.ScanDirectory(t.Context(), "  ")
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.InvalidArgument))

	result, err := s.ScanDirectory(t.Context(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.ScanFailed))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 0, s.GetSummary().TotalFiles)
}

func TestEventsUpdateSummaryAndUsage(t *testing.T) {
	tree := testutil.NewTree(t)
	p := tree.File("desk/todo.txt", "x")

	s := newTestService(t, testConfig())
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	assert.Equal(t, 1, s.GetSummary().TotalFiles)

	at := time.Now()
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Changed, Path: p, Time: at})
	n, ok := s.Node(p)
	require.True(t, ok)
	assert.Equal(t, 1, n.AccessCount)

	patterns := s.UsagePatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, p, patterns[0].Path)

	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Removed, Path: p})
	assert.Equal(t, 0, s.GetSummary().TotalFiles)
	assert.Equal(t, 100.0, s.GetSummary().OverallHealth)
}

func TestRecomputeSummary_LastWriterSeesEveryMutation(t *testing.T) {
	s := newTestService(t, testConfig())

	const writers = 32
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.store.Put(node.FileNode{Path: fmt.Sprintf("/data/f%02d.txt", i), Health: 100})
			s.RecomputeSummary()
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, s.GetSummary().TotalFiles)
}

func TestOrganize_MovesAndRecomputes(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("inbox/report.pdf", "r")
	tree.File("inbox/song.mp3", "s")

	s := newTestService(t, testConfig())
	_, err := s.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)

	result, err := s.Organize(t.Context(), reorganize.Options{
		TargetDirectory: tree.Path("inbox"),
		Strategy:        reorganize.ByType,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.OrganizedCount)

	_, ok := s.Node(tree.Path("inbox/document/report.pdf"))
	assert.True(t, ok)
	_, ok = s.Node(tree.Path("inbox/audio/song.mp3"))
	assert.True(t, ok)

	var zonePaths []string
	for _, z := range s.GetSummary().Zones {
		zonePaths = append(zonePaths, z.Path)
	}
	assert.ElementsMatch(t, []string{tree.Path("inbox/document"), tree.Path("inbox/audio")}, zonePaths)

	_, err = s.Organize(t.Context(), reorganize.Options{TargetDirectory: tree.Path("inbox"), Strategy: "colour"})
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.InvalidStrategy))
}

func TestOrganize_DefaultStrategyFromConfig(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("in/a.txt", "a")

	cfg := testConfig()
	cfg.Organize.DefaultStrategy = "size"
	s := newTestService(t, cfg)

	result, err := s.Organize(t.Context(), reorganize.Options{TargetDirectory: tree.Path("in")})
	require.NoError(t, err)
	require.Len(t, result.Details, 1)
	assert.Equal(t, tree.Path("in/small/a.txt"), result.Details[0].Destination)
}

func TestDuplicatesAndHealth(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("a/one.txt", "same content")
	tree.File("b/two.txt", "same content")
	tree.File("b/three.txt", "different")

	s := newTestService(t, testConfig())
	_, err := s.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)

	dups, err := s.FindDuplicates(t.Context())
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, tree.Path("a/one.txt"), dups[0].OriginalPath)
	assert.Equal(t, tree.Path("b/two.txt"), dups[0].DuplicatePath)

	report, err := s.HealthReport(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, 1, report.DuplicateFiles)
	assert.InDelta(t, 100-100.0/3, report.HealthScore, 0.01)
}

func TestInsights(t *testing.T) {
	tree := testutil.NewTree(t)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		tree.File("docs/"+name+".pdf", name)
	}

	s := newTestService(t, testConfig())
	_, err := s.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)

	suggestions := s.OrganizationSuggestions()
	require.NotEmpty(t, suggestions)
	assert.Equal(t, 6, suggestions[0].FileCount)

	patterns := s.AccessPatterns()
	assert.Len(t, patterns.NeverAccessed, 6)
	assert.Empty(t, s.ArchiveSuggestions())
}

type fakeCloaker struct{ err error }

func (f fakeCloaker) Cloak(_ context.Context, path string) (cloak.Receipt, error) {
	if f.err != nil {
		return cloak.Receipt{}, f.err
	}
	return cloak.Receipt{Path: path, IntegrityHash: "h-" + filepath.Base(path)}, nil
}

func TestCloak(t *testing.T) {
	tree := testutil.NewTree(t)
	p := tree.File("secret.txt", "s")

	s := newTestService(t, testConfig(), func(o *Options) { o.Cloaker = fakeCloaker{} })
	_, err := s.Cloak(t.Context(), p)
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.NotTracked))

	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	n, err := s.Cloak(t.Context(), p)
	require.NoError(t, err)
	assert.True(t, n.Cloaked)
	assert.Equal(t, "h-secret.txt", n.IntegrityHash)

	// the decoy written at the same path keeps the cloak state
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	n, _ = s.Node(p)
	assert.True(t, n.Cloaked)
	assert.Equal(t, 1, s.GetSummary().TotalFiles)

	failing := newTestService(t, testConfig(), func(o *Options) { o.Cloaker = fakeCloaker{err: errors.New("locked")} })
	failing.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	_, err = failing.Cloak(t.Context(), p)
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.CloakFailed))

	none := newTestService(t, testConfig())
	_, err = none.Cloak(t.Context(), p)
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.CloakFailed))
}

func TestNodesFilter(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("work/report.pdf", "r")
	tree.File("work/invoice.pdf", "i")
	tree.File("play/holiday.jpg", "h")

	s := newTestService(t, testConfig())
	_, err := s.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)

	assert.Len(t, s.Nodes(NodeFilter{}), 3)
	assert.Len(t, s.Nodes(NodeFilter{Dir: tree.Path("work")}), 2)
	assert.Len(t, s.Nodes(NodeFilter{Type: classify.TypeImage}), 1)
	assert.Len(t, s.Nodes(NodeFilter{Tag: "financial"}), 1)
	assert.Len(t, s.Nodes(NodeFilter{Limit: 1}), 1)
}

func TestBackgroundJobs(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("a.txt", "a")
	tree.File("deep/b.txt", "b")

	s := newTestService(t, testConfig())
	require.NoError(t, s.Start(t.Context()))

	job, err := s.SubmitScan(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobQueued, job.Status)

	require.Eventually(t, func() bool {
		j, _ := s.Jobs().GetJob(job.ID)
		return j != nil && j.Status == jobs.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, s.GetSummary().TotalFiles)

	dupJob, err := s.SubmitDuplicates()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, _ := s.Jobs().GetJob(dupJob.ID)
		return j != nil && j.Status == jobs.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)

	orgJob, err := s.SubmitOrganize(reorganize.Options{TargetDirectory: tree.Root, Strategy: reorganize.ByCategory, DryRun: true})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, _ := s.Jobs().GetJob(orgJob.ID)
		return j != nil && j.Status == jobs.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, tree.Path("a.txt"))
}

func TestDirAddedScansInBackground(t *testing.T) {
	tree := testutil.NewTree(t)
	dir := tree.Dir("new")
	tree.File("new/x.txt", "x")
	tree.File("new/y.txt", "y")

	s := newTestService(t, testConfig())
	require.NoError(t, s.Start(t.Context()))

	s.Watcher().Dispatch(watcher.Event{Kind: watcher.DirAdded, Path: dir})
	require.Eventually(t, func() bool {
		return s.GetSummary().TotalFiles == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSnapshotWarmStart(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.File("keep/a.txt", "a")
	tree.File("keep/b.txt", "b")

	cfg := testConfig()
	cfg.Storage.Enabled = true
	cfg.Storage.Path = filepath.Join(t.TempDir(), "biome.db")

	first, err := New(Options{Config: cfg, Logger: slogutil.NewDiscardLogger()})
	require.NoError(t, err)
	require.NoError(t, first.Start(t.Context()))
	_, err = first.ScanDirectory(t.Context(), tree.Root)
	require.NoError(t, err)
	require.NoError(t, first.Stop(5*time.Second))

	second := newTestService(t, cfg)
	require.NoError(t, second.Start(t.Context()))
	summary := second.GetSummary()
	assert.Equal(t, 2, summary.TotalFiles)
	assert.False(t, summary.LastScanTimestamp.IsZero())
}

func TestExport(t *testing.T) {
	tree := testutil.NewTree(t)
	p := tree.File("a.txt", "a")

	s := newTestService(t, testConfig())
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Changed, Path: p})

	out := filepath.Join(t.TempDir(), "snap.json.zst")
	require.NoError(t, s.Export(out, ""))

	doc, err := export.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, 1, doc.Summary.TotalFiles)
	require.Len(t, doc.Usage, 1)
	assert.Equal(t, 1, doc.Usage[0].AccessCount)
}

func TestScheduledTasks(t *testing.T) {
	tree := testutil.NewTree(t)
	p := tree.File("a.txt", "a")

	cfg := testConfig()
	cfg.Scheduler.Tasks = []config.TaskConfig{
		{ID: "recompute", TaskType: "recompute_summary", Expression: "every 1m", Enabled: true},
		{ID: "snapshot", TaskType: "save_snapshot", Expression: "every 10m", Enabled: false},
	}
	cfg.Watch.RecomputeDebounce = time.Hour
	s := newTestService(t, cfg)

	// the debounce holds the recompute back; the scheduled task forces it
	s.Watcher().Dispatch(watcher.Event{Kind: watcher.Added, Path: p})
	assert.Equal(t, 0, s.GetSummary().TotalFiles)
	require.NoError(t, s.Scheduler().RunNow(t.Context(), "recompute"))
	assert.Equal(t, 1, s.GetSummary().TotalFiles)

	snap, ok := s.Scheduler().Get("snapshot")
	require.True(t, ok)
	assert.False(t, snap.Enabled)
	require.NoError(t, s.Scheduler().RunNow(t.Context(), "snapshot"))

	bad := testConfig()
	bad.Scheduler.Tasks = []config.TaskConfig{{ID: "x", TaskType: "defragment", Expression: "every 1m"}}
	_, err := New(Options{Config: bad, Logger: slogutil.NewDiscardLogger()})
	assert.Error(t, err)
}
