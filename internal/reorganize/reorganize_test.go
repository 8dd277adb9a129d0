package reorganize

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biomeerrors "biome/internal/errors"
	"biome/internal/node"
	"biome/internal/scoring"
	"biome/internal/slogutil"
	"biome/internal/testutil"
	"biome/internal/usage"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	tree    *testutil.Tree
	store   *node.Store
	usage   *usage.Tracker
	factory *node.Factory
	r       *Reorganizer
	done    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tree:    testutil.NewTree(t),
		store:   node.NewStore(),
		usage:   usage.NewTracker(),
		factory: node.NewFactory(nil, testutil.FixedClock(fixedNow)),
	}
	f.r = New(f.store, f.usage, f.factory, slogutil.NewDiscardLogger())
	f.r.OnComplete = func() { f.done++ }
	return f
}

func (f *fixture) track(t *testing.T, p string) {
	t.Helper()
	n, err := f.factory.Build(p)
	require.NoError(t, err)
	f.store.Put(n)
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"type", "category", "date", "size"} {
		got, err := ParseStrategy(s)
		require.NoError(t, err)
		assert.Equal(t, Strategy(s), got)
	}
	_, err := ParseStrategy("colour")
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.InvalidStrategy))
}

func TestSubdir(t *testing.T) {
	n := node.FileNode{
		Type:       "image",
		Category:   "personal",
		ModifiedAt: time.Date(2023, 3, 9, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "image", ByType.Subdir(n))
	assert.Equal(t, "personal", ByCategory.Subdir(n))
	assert.Equal(t, filepath.Join("2023", "03"), ByDate.Subdir(n))

	for size, want := range map[int64]string{
		0:                   SizeSmall,
		10 * scoring.MiB:    SizeSmall,
		10*scoring.MiB + 1:  SizeMedium,
		100 * scoring.MiB:   SizeMedium,
		100*scoring.MiB + 1: SizeLarge,
	} {
		n.Size = size
		assert.Equal(t, want, BySize.Subdir(n), "size %d", size)
	}
}

func TestOrganize_SizeWithBackups(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("Downloads")
	small := f.tree.SizedFile("Downloads/notes.pdf", 5*scoring.MiB)
	large := f.tree.SizedFile("Downloads/movie.mkv", 200*scoring.MiB)
	f.track(t, small)
	f.track(t, large)

	res, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: BySize, CreateBackup: true})
	require.NoError(t, err)

	assert.Equal(t, 2, res.OrganizedCount)
	assert.Equal(t, 0, res.ErrorCount)
	assert.Equal(t, []string{
		"large/movie.mkv",
		"movie.mkv.backup",
		"notes.pdf.backup",
		"small/notes.pdf",
	}, listFiles(t, dir))

	info, err := os.Stat(filepath.Join(dir, "notes.pdf.backup"))
	require.NoError(t, err)
	assert.Equal(t, int64(5*scoring.MiB), info.Size())

	// store re-keyed
	_, ok := f.store.Get(small)
	assert.False(t, ok)
	moved, ok := f.store.Get(filepath.Join(dir, "small", "notes.pdf"))
	require.True(t, ok)
	assert.Equal(t, "notes.pdf", moved.Name)
	assert.Equal(t, 2, f.store.Len())
	assert.Equal(t, 1, f.done)
}

func TestOrganize_IdempotentForTypeAndCategory(t *testing.T) {
	for _, strategy := range []Strategy{ByType, ByCategory} {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			dir := f.tree.Dir("Desktop")
			f.tree.File("Desktop/report.pdf", "r")
			f.tree.File("Desktop/family.jpg", "f")
			f.tree.File("Desktop/main.py", "m")

			first, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: strategy})
			require.NoError(t, err)
			assert.Equal(t, 3, first.OrganizedCount)

			before := listFiles(t, dir)
			second, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: strategy})
			require.NoError(t, err)
			assert.Equal(t, 0, second.OrganizedCount)
			assert.Equal(t, 0, second.ErrorCount)
			assert.Equal(t, before, listFiles(t, dir))
		})
	}
}

func TestOrganize_DateStrategy(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("Pictures")
	f.tree.File("Pictures/a.png", "a")
	mt := time.Date(2022, 11, 5, 10, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(f.tree.Path("Pictures/a.png"), mt, mt))

	res, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: ByDate})
	require.NoError(t, err)
	assert.Equal(t, 1, res.OrganizedCount)
	assert.Equal(t, []string{"2022/11/a.png"}, listFiles(t, dir))

	// modification time survives the move
	info, err := os.Stat(filepath.Join(dir, "2022", "11", "a.png"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mt))
}

func TestOrganize_SkipsHiddenBackupsAndDirectories(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("d")
	f.tree.File("d/.hidden.txt", "h")
	f.tree.File("d/old.txt.backup", "b")
	f.tree.File("d/sub/inner.txt", "i")

	res, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: ByType})
	require.NoError(t, err)
	assert.Equal(t, 0, res.OrganizedCount)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Equal(t, []string{".hidden.txt", "old.txt.backup", "sub/inner.txt"}, listFiles(t, dir))
}

func TestOrganize_PerFileErrorsDoNotStopBatch(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("d")
	f.tree.File("d/a.txt", "new a")
	f.tree.File("d/document/a.txt", "existing a")
	f.tree.File("d/b.txt", "b")
	f.tree.File("d/c.txt", "c")
	f.tree.File("d/c.txt.backup", "stale backup")

	res, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: ByType, CreateBackup: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.OrganizedCount)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, 1, res.SkippedCount) // c.txt.backup itself

	// nothing lost or overwritten
	data, err := os.ReadFile(filepath.Join(dir, "document", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "existing a", string(data))
	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a.txt.backup"))
	assert.True(t, os.IsNotExist(err))
	data, err = os.ReadFile(filepath.Join(dir, "c.txt.backup"))
	require.NoError(t, err)
	assert.Equal(t, "stale backup", string(data))
	_, err = os.Stat(filepath.Join(dir, "document", "b.txt"))
	assert.NoError(t, err)

	for _, d := range res.Details {
		if d.Outcome == OutcomeError {
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestOrganize_DryRun(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("d")
	f.tree.File("d/a.txt", "a")

	res, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: ByType, CreateBackup: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.OrganizedCount)
	require.Len(t, res.Details, 1)
	assert.Equal(t, OutcomePlanned, res.Details[0].Outcome)
	assert.Equal(t, filepath.Join(dir, "document", "a.txt"), res.Details[0].Destination)
	assert.Equal(t, []string{"a.txt"}, listFiles(t, dir))
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 0, f.done)
}

func TestOrganize_PreservesAccessState(t *testing.T) {
	f := newFixture(t)
	dir := f.tree.Dir("d")
	p := f.tree.File("d/a.txt", "a")
	f.track(t, p)
	f.store.Update(p, func(n node.FileNode) node.FileNode {
		n.AccessCount = 7
		n.Cloaked = true
		n.IntegrityHash = "ih"
		return n
	})
	f.usage.Record(p, fixedNow)

	_, err := f.r.Organize(t.Context(), Options{TargetDirectory: dir, Strategy: ByType})
	require.NoError(t, err)

	dst := filepath.Join(dir, "document", "a.txt")
	n, ok := f.store.Get(dst)
	require.True(t, ok)
	assert.Equal(t, 7, n.AccessCount)
	assert.True(t, n.Cloaked)
	assert.Equal(t, "ih", n.IntegrityHash)
	_, ok = f.usage.Get(dst)
	assert.True(t, ok)
}

func TestOrganize_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.Organize(t.Context(), Options{TargetDirectory: f.tree.Root, Strategy: "alphabet"})
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.InvalidStrategy))

	_, err = f.r.Organize(t.Context(), Options{TargetDirectory: f.tree.Path("missing"), Strategy: ByType})
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.ScanFailed))

	_, err = f.r.Organize(t.Context(), Options{Strategy: ByType})
	assert.True(t, biomeerrors.HasCode(err, biomeerrors.InvalidArgument))
}

func TestMoveFile(t *testing.T) {
	tree := testutil.NewTree(t)
	src := tree.File("a.txt", "payload")
	dst := tree.Path("b.txt")

	require.NoError(t, moveFile(src, dst))
	assert.False(t, exists(src))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	assert.Error(t, copyFile(dst, dst))
}
