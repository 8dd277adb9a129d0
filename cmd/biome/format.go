package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"biome/internal/duplicates"
	"biome/internal/insights"
	"biome/internal/reorganize"
	"biome/internal/watcher"
	"biome/internal/zones"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

var (
	critical = color.New(color.FgRed, color.Bold).SprintFunc()
	warning  = color.New(color.FgYellow).SprintFunc()
	healthy  = color.New(color.FgGreen).SprintFunc()
	heading  = color.New(color.Bold).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case zones.Summary:
		return formatSummaryHuman(v), nil
	case watcher.ScanResult:
		return formatScanHuman(v), nil
	case reorganize.Result:
		return formatOrganizeHuman(v), nil
	case []duplicates.Duplicate:
		return formatDuplicatesHuman(v), nil
	case insights.HealthReport:
		return formatHealthHuman(v), nil
	case []insights.ArchiveSuggestion:
		return formatArchiveHuman(v), nil
	case insights.AccessPatterns:
		return formatAccessHuman(v), nil
	case []insights.OrganizationSuggestion:
		return formatOrganizationHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

// colorStatus paints a zone status by severity.
func colorStatus(s zones.Status) string {
	switch s {
	case zones.StatusCritical:
		return critical(string(s))
	case zones.StatusWarning:
		return warning(string(s))
	default:
		return healthy(string(s))
	}
}

func formatSummaryHuman(s zones.Summary) string {
	var b strings.Builder
	b.WriteString(heading("Biome Summary") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Status:   %s\n", colorStatus(s.Status)))
	b.WriteString(fmt.Sprintf("Files:    %d (%s)\n", s.TotalFiles, formatBytes(s.TotalSizeBytes)))
	b.WriteString(fmt.Sprintf("Entropy:  %.1f\n", s.OverallEntropy))
	b.WriteString(fmt.Sprintf("Health:   %.1f\n", s.OverallHealth))
	if !s.LastScanTimestamp.IsZero() {
		b.WriteString(fmt.Sprintf("Scanned:  %s\n", s.LastScanTimestamp.Local().Format("2006-01-02 15:04:05")))
	}
	if len(s.Zones) > 0 {
		b.WriteString("\nZones:\n")
		for _, z := range s.Zones {
			b.WriteString(fmt.Sprintf("  %-8s %5.1f entropy  %5.1f health  %4d files  %s\n",
				colorStatus(z.Status), z.AverageEntropy, z.AverageHealth, z.FileCount, z.Path))
		}
	}
	return b.String()
}

func formatScanHuman(r watcher.ScanResult) string {
	icon := healthy("✓")
	if !r.Success {
		icon = critical("✗")
	}
	line := fmt.Sprintf("%s Scanned %s: %d files, %d new (%s)", icon, r.Directory, r.FilesScanned, r.NodesAdded, r.Duration.Round(1e6))
	if r.Error != "" {
		line += "\n  " + critical(r.Error)
	}
	return line
}

func formatOrganizeHuman(r reorganize.Result) string {
	var b strings.Builder
	b.WriteString(heading("Organize") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Organized: %d  Skipped: %d  Errors: %d\n\n", r.OrganizedCount, r.SkippedCount, r.ErrorCount))
	for _, d := range r.Details {
		switch d.Outcome {
		case reorganize.OutcomeMoved, reorganize.OutcomePlanned:
			b.WriteString(fmt.Sprintf("  %s %s -> %s\n", healthy(d.Outcome), d.Source, d.Destination))
		case reorganize.OutcomeSkipped:
			b.WriteString(fmt.Sprintf("  %s %s %s\n", faint(d.Outcome), d.Source, faint(d.Reason)))
		default:
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", critical(d.Outcome), d.Source, d.Reason))
		}
	}
	return b.String()
}

func formatDuplicatesHuman(dups []duplicates.Duplicate) string {
	if len(dups) == 0 {
		return healthy("No duplicates found")
	}
	var b strings.Builder
	b.WriteString(heading(fmt.Sprintf("Duplicates (%d)", len(dups))) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, d := range dups {
		b.WriteString(fmt.Sprintf("  %s\n    = %s (%s)\n", d.DuplicatePath, d.OriginalPath, formatBytes(d.Size)))
	}
	return b.String()
}

func formatHealthHuman(r insights.HealthReport) string {
	var b strings.Builder
	b.WriteString(heading("Health Report") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	score := fmt.Sprintf("%.0f", r.HealthScore)
	switch {
	case r.HealthScore < 50:
		score = critical(score)
	case r.HealthScore < 80:
		score = warning(score)
	default:
		score = healthy(score)
	}
	b.WriteString(fmt.Sprintf("Score:      %s / 100\n", score))
	b.WriteString(fmt.Sprintf("Files:      %d\n", r.TotalFiles))
	b.WriteString(fmt.Sprintf("Corrupted:  %d\n", r.CorruptedFiles))
	b.WriteString(fmt.Sprintf("Duplicates: %d\n", r.DuplicateFiles))
	b.WriteString(fmt.Sprintf("Old:        %d\n", r.OldFiles))
	b.WriteString(fmt.Sprintf("Large:      %d\n", r.LargeFiles))
	return b.String()
}

func formatArchiveHuman(s []insights.ArchiveSuggestion) string {
	if len(s) == 0 {
		return healthy("Nothing to archive")
	}
	var b strings.Builder
	b.WriteString(heading("Archive Suggestions") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, a := range s {
		b.WriteString(fmt.Sprintf("  [%d] %s (%s)\n      %s\n", a.Priority, a.Path, formatBytes(a.Size), faint(a.Reason)))
	}
	return b.String()
}

func formatAccessHuman(p insights.AccessPatterns) string {
	var b strings.Builder
	b.WriteString(heading("Access Patterns") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	section := func(title string, entries []insights.AccessEntry) {
		b.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(entries)))
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("  %4d  %s\n", e.AccessCount, e.Path))
		}
	}
	section("Most accessed", p.MostAccessed)
	section("Recently accessed", p.RecentlyAccessed)
	section("Never accessed", p.NeverAccessed)
	return b.String()
}

func formatOrganizationHuman(s []insights.OrganizationSuggestion) string {
	if len(s) == 0 {
		return healthy("No organization suggestions")
	}
	var b strings.Builder
	b.WriteString(heading("Organization Suggestions") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, o := range s {
		prio := o.Priority
		if prio == "high" {
			prio = warning(prio)
		}
		b.WriteString(fmt.Sprintf("  %s %s: %d files (%s)\n", o.Action, o.Bucket, o.FileCount, prio))
	}
	return b.String()
}

// formatBytes formats byte size in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
