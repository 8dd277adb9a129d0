package reorganize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	biomeerrors "biome/internal/errors"
	"biome/internal/node"
	"biome/internal/paths"
	"biome/internal/usage"
)

// BackupSuffix is appended to a file's path to name its backup copy.
const BackupSuffix = ".backup"

// Options for one organize run.
type Options struct {
	TargetDirectory string   `json:"targetDirectory" yaml:"targetDirectory"`
	Strategy        Strategy `json:"strategy" yaml:"strategy"`
	CreateBackup    bool     `json:"createBackup" yaml:"createBackup"`
	// DryRun plans the moves without touching the filesystem or the store.
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// Outcome of one file.
const (
	OutcomeMoved   = "moved"
	OutcomePlanned = "planned"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Detail describes what happened to one file.
type Detail struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Backup      string `json:"backup,omitempty" yaml:"backup,omitempty"`
	Outcome     string `json:"outcome" yaml:"outcome"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result summarizes an organize run.
type Result struct {
	OrganizedCount int      `json:"organizedCount" yaml:"organizedCount"`
	SkippedCount   int      `json:"skippedCount" yaml:"skippedCount"`
	ErrorCount     int      `json:"errorCount" yaml:"errorCount"`
	Details        []Detail `json:"details" yaml:"details"`
}

// Reorganizer plans and executes moves and keeps the node store in step.
type Reorganizer struct {
	store   *node.Store
	usage   *usage.Tracker
	factory *node.Factory
	logger  *slog.Logger

	// OnComplete runs after every non-dry run, typically a summary recompute.
	OnComplete func()
	// OnMove observes each per-file outcome.
	OnMove func(outcome string)
}

// New creates a reorganizer.
func New(store *node.Store, tracker *usage.Tracker, factory *node.Factory, logger *slog.Logger) *Reorganizer {
	return &Reorganizer{store: store, usage: tracker, factory: factory, logger: logger}
}

// Organize moves every regular file directly inside opts.TargetDirectory
// into the subdirectory chosen by opts.Strategy. Per-file failures are
// counted and recorded in the details; they never stop the batch. Hidden
// files and backup artifacts are skipped.
//
// The returned error is non-nil only when the run could not start (bad
// strategy, unreadable directory) or ctx ended; the partial result is
// returned in the latter case.
func (r *Reorganizer) Organize(ctx context.Context, opts Options) (Result, error) {
	result := Result{Details: []Detail{}}

	if _, err := ParseStrategy(string(opts.Strategy)); err != nil {
		return result, err
	}
	target, err := filepath.Abs(opts.TargetDirectory)
	if err != nil || opts.TargetDirectory == "" {
		return result, biomeerrors.Newf(biomeerrors.InvalidArgument, "invalid target directory %q", opts.TargetDirectory)
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		return result, biomeerrors.New(biomeerrors.ScanFailed, "cannot read "+target, err)
	}

	r.logger.Info("Organizing directory",
		"path", target,
		"strategy", opts.Strategy,
		"backup", opts.CreateBackup,
		"dryRun", opts.DryRun)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			r.finish(opts, &result)
			return result, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		d := r.organizeFile(filepath.Join(target, entry.Name()), target, opts)
		r.record(&result, d)
	}

	r.finish(opts, &result)
	return result, nil
}

func (r *Reorganizer) record(result *Result, d Detail) {
	switch d.Outcome {
	case OutcomeMoved, OutcomePlanned:
		result.OrganizedCount++
	case OutcomeSkipped:
		result.SkippedCount++
	case OutcomeError:
		result.ErrorCount++
		r.logger.Warn("Failed to organize file", "path", d.Source, "reason", d.Reason)
	}
	if r.OnMove != nil {
		r.OnMove(d.Outcome)
	}
	result.Details = append(result.Details, d)
}

func (r *Reorganizer) finish(opts Options, result *Result) {
	r.logger.Info("Organize complete",
		"organized", result.OrganizedCount,
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount)
	if !opts.DryRun && r.OnComplete != nil {
		r.OnComplete()
	}
}

func (r *Reorganizer) organizeFile(src, target string, opts Options) Detail {
	d := Detail{Source: src}
	name := filepath.Base(src)
	if paths.IsHidden(name) || strings.HasSuffix(name, BackupSuffix) {
		d.Outcome, d.Reason = OutcomeSkipped, "excluded"
		return d
	}

	n, tracked := r.store.Get(src)
	if !tracked {
		built, err := r.factory.Build(src)
		if err != nil {
			d.Outcome, d.Reason = OutcomeSkipped, "vanished"
			return d
		}
		n = built
	}

	dst := filepath.Join(target, opts.Strategy.Subdir(n), name)
	d.Destination = dst
	if dst == src {
		d.Outcome, d.Reason = OutcomeSkipped, "already organized"
		return d
	}
	if exists(dst) {
		d.Outcome, d.Reason = OutcomeError, string(biomeerrors.MoveFailed)+": destination exists"
		return d
	}

	backup := ""
	if opts.CreateBackup {
		backup = src + BackupSuffix
		d.Backup = backup
		if exists(backup) {
			d.Outcome, d.Reason = OutcomeError, string(biomeerrors.BackupFailed)+": backup exists"
			return d
		}
	}

	if opts.DryRun {
		d.Outcome = OutcomePlanned
		return d
	}

	if backup != "" {
		if err := copyFile(src, backup); err != nil {
			d.Outcome, d.Reason = OutcomeError, string(biomeerrors.BackupFailed)+": "+err.Error()
			return d
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		r.discardBackup(backup)
		d.Outcome, d.Reason = OutcomeError, string(biomeerrors.MoveFailed)+": "+err.Error()
		return d
	}
	if err := moveFile(src, dst); err != nil {
		r.discardBackup(backup)
		d.Outcome, d.Reason = OutcomeError, string(biomeerrors.MoveFailed)+": "+err.Error()
		return d
	}

	r.rekey(src, dst, n, tracked)
	d.Outcome = OutcomeMoved
	return d
}

// rekey replaces the node at src by one at dst in a single store step.
func (r *Reorganizer) rekey(src, dst string, prev node.FileNode, tracked bool) {
	moved, err := r.factory.Build(dst)
	if err != nil {
		moved = prev.Clone()
		moved.Path = dst
		moved.Name = filepath.Base(dst)
	}
	moved = moved.CarryState(prev)
	moved.ContentHash = prev.ContentHash
	r.store.Rekey(src, moved)
	if tracked && r.usage != nil {
		r.usage.Move(src, dst)
	}
}

func (r *Reorganizer) discardBackup(backup string) {
	if backup == "" {
		return
	}
	if err := os.Remove(backup); err != nil {
		r.logger.Warn("Failed to remove backup after failed move", "path", backup, "error", err)
	}
}
