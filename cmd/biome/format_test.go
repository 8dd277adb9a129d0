package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biome/internal/duplicates"
	"biome/internal/insights"
	"biome/internal/reorganize"
	"biome/internal/zones"
)

func TestFormatResponse_JSON(t *testing.T) {
	out, err := FormatResponse(map[string]interface{}{"key": "value", "num": 42}, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"key": "value"`)
	assert.Contains(t, out, `"num": 42`)
}

func TestFormatResponse_YAML(t *testing.T) {
	out, err := FormatResponse(zones.Summary{TotalFiles: 3, Status: zones.StatusHealthy}, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "totalFiles: 3")
	assert.Contains(t, out, "status: healthy")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestFormatHuman_Summary(t *testing.T) {
	out, err := FormatResponse(zones.Summary{
		TotalFiles:        2,
		TotalSizeBytes:    2048,
		OverallEntropy:    72.5,
		OverallHealth:     40,
		Status:            zones.StatusCritical,
		LastScanTimestamp: time.Now(),
		Zones: []zones.Zone{
			{Path: "/data/inbox", Name: "inbox", FileCount: 2, AverageEntropy: 72.5, AverageHealth: 40, Status: zones.StatusCritical},
		},
	}, FormatHuman)
	require.NoError(t, err)
	assert.Contains(t, out, "Biome Summary")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "/data/inbox")
	assert.Contains(t, out, "critical")
}

func TestFormatHuman_Variants(t *testing.T) {
	out, err := formatHuman(reorganize.Result{
		OrganizedCount: 1,
		SkippedCount:   1,
		Details: []reorganize.Detail{
			{Source: "/a/x.jpg", Destination: "/a/image/x.jpg", Outcome: reorganize.OutcomeMoved},
			{Source: "/a/y.jpg", Outcome: reorganize.OutcomeSkipped, Reason: "not tracked"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "/a/x.jpg -> /a/image/x.jpg")
	assert.Contains(t, out, "not tracked")

	out, err = formatHuman([]duplicates.Duplicate(nil))
	require.NoError(t, err)
	assert.Equal(t, "No duplicates found", out)

	out, err = formatHuman(insights.HealthReport{TotalFiles: 10, HealthScore: 85})
	require.NoError(t, err)
	assert.Contains(t, out, "85 / 100")

	out, err = formatHuman(struct {
		Name string `json:"name"`
	}{Name: "fallback"})
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "fallback"`)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatBytes(tt.bytes))
		})
	}
}
