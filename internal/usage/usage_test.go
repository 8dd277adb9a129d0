package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func TestRecord(t *testing.T) {
	tr := NewTracker()

	p := tr.Record("/a", t0)
	assert.Equal(t, 1, p.AccessCount)
	assert.Equal(t, 1.0, p.AccessFrequency)

	// same-day access stays at 1
	p = tr.Record("/a", t0.Add(2*time.Hour))
	assert.Equal(t, 2, p.AccessCount)
	assert.Equal(t, 1.0, p.AccessFrequency)

	p = tr.Record("/a", t0.Add(2*time.Hour+4*24*time.Hour))
	assert.Equal(t, 3, p.AccessCount)
	assert.InDelta(t, 0.25, p.AccessFrequency, 1e-9)

	got, ok := tr.Get("/a")
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestMoveAndForget(t *testing.T) {
	tr := NewTracker()
	tr.Record("/a", t0)

	tr.Move("/a", "/b")
	_, ok := tr.Get("/a")
	assert.False(t, ok)
	p, ok := tr.Get("/b")
	require.True(t, ok)
	assert.Equal(t, "/b", p.Path)

	tr.Move("/missing", "/c")
	_, ok = tr.Get("/c")
	assert.False(t, ok)

	assert.Len(t, tr.All(), 1)
}

func TestAllSorted(t *testing.T) {
	tr := NewTracker()
	tr.Record("/z", t0)
	tr.Record("/y", t0)
	tr.Record("/y", t0)
	tr.Record("/x", t0)

	all := tr.All()
	require.Len(t, all, 3)
	assert.Equal(t, "/y", all[0].Path)
	assert.Equal(t, "/x", all[1].Path)
	assert.Equal(t, "/z", all[2].Path)
}
