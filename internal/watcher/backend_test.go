package watcher

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biome/internal/node"
	"biome/internal/slogutil"
	"biome/internal/testutil"
)

func newLiveCoordinator(t *testing.T, cfg Config) (*Coordinator, *node.Store) {
	t.Helper()
	store := node.NewStore()
	c := New(cfg, Deps{Store: store}, slogutil.NewDiscardLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func TestWatch_FileLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecomputeDebounce = 0
	c, store := newLiveCoordinator(t, cfg)
	tree := testutil.NewTree(t)
	root := tree.Dir("root")

	require.NoError(t, c.Watch(root))

	p := tree.File("root/report.pdf", "v1")
	require.Eventually(t, func() bool {
		_, ok := store.Get(p)
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(p))
	require.Eventually(t, func() bool {
		_, ok := store.Get(p)
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_NewDirectoryIsScanned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecomputeDebounce = 0
	c, store := newLiveCoordinator(t, cfg)
	tree := testutil.NewTree(t)
	root := tree.Dir("root")
	require.NoError(t, c.Watch(root))

	// build the directory elsewhere and move it in so its content is
	// already present when the create event arrives
	tree.File("staging/album/a.jpg", "a")
	tree.File("staging/album/b.jpg", "b")
	require.NoError(t, os.Rename(tree.Path("staging/album"), tree.Path("root/album")))

	require.Eventually(t, func() bool {
		return store.Len() == 2
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.RemoveAll(tree.Path("root/album")))
	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_IgnoresHiddenFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecomputeDebounce = 0
	c, store := newLiveCoordinator(t, cfg)
	tree := testutil.NewTree(t)
	root := tree.Dir("root")
	require.NoError(t, c.Watch(root))

	tree.File("root/.DS_Store", "x")
	visible := tree.File("root/visible.txt", "x")

	require.Eventually(t, func() bool {
		_, ok := store.Get(visible)
		return ok
	}, 5*time.Second, 20*time.Millisecond)
	_, ok := store.Get(tree.Path("root/.DS_Store"))
	assert.False(t, ok)
}

func TestWatch_DepthLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 1
	c, _ := newLiveCoordinator(t, cfg)
	tree := testutil.NewTree(t)
	tree.Dir("root/one/two")
	require.NoError(t, c.Watch(tree.Path("root")))

	c.mu.RLock()
	rw := c.roots[tree.Path("root")]
	c.mu.RUnlock()

	rw.mu.Lock()
	defer rw.mu.Unlock()
	assert.True(t, rw.dirs[tree.Path("root")])
	assert.True(t, rw.dirs[tree.Path("root/one")])
	assert.False(t, rw.dirs[tree.Path("root/one/two")])
}

func TestWatch_RemovingDirectoryBelowDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	cfg.RecomputeDebounce = 0
	c, store := newLiveCoordinator(t, cfg)
	tree := testutil.NewTree(t)
	tree.File("root/a/b/c/x.txt", "x")
	tree.File("root/a/b/c/y.txt", "y")
	require.NoError(t, c.Watch(tree.Path("root")))

	_, err := c.Scan(t.Context(), tree.Path("root"))
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.NoError(t, os.RemoveAll(tree.Path("root/a/b/c")))
	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStart_StaggeredRoots(t *testing.T) {
	c, _ := newLiveCoordinator(t, DefaultConfig())
	tree := testutil.NewTree(t)
	desktop := tree.Dir("Desktop")
	downloads := tree.Dir("Downloads")

	c.Start(t.Context(), []string{desktop, tree.Path("Missing")}, []string{downloads}, 50*time.Millisecond)

	assert.Equal(t, Watching, c.State(desktop))
	assert.Equal(t, Unwatched, c.State(tree.Path("Missing")))
	assert.Equal(t, Unwatched, c.State(downloads))

	require.Eventually(t, func() bool {
		return c.State(downloads) == Watching
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStart_DeferredCancelled(t *testing.T) {
	c, _ := newLiveCoordinator(t, DefaultConfig())
	tree := testutil.NewTree(t)
	downloads := tree.Dir("Downloads")

	ctx, cancel := context.WithCancel(t.Context())
	c.Start(ctx, nil, []string{downloads}, time.Hour)
	cancel()

	require.NoError(t, c.Close())
	assert.Equal(t, Unwatched, c.State(downloads))
}
