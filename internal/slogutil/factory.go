package slogutil

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"biome/internal/config"
	"biome/internal/paths"
)

// LoggerFactory builds loggers from configuration.
// Precedence: CLI flags > config file > default (info).
type LoggerFactory struct {
	config   *config.Config
	cliLevel *slog.Level
	stderr   io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel is nil when no CLI
// verbosity flag was given.
func NewLoggerFactory(cfg *config.Config, cliLevel *slog.Level, stderr io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &LoggerFactory{config: cfg, cliLevel: cliLevel, stderr: stderr}
}

// CLILogger writes to stderr only.
func (f *LoggerFactory) CLILogger() *slog.Logger {
	return NewLogger(f.stderr, f.effectiveLevel())
}

// DaemonLogger writes to stderr and to the rotating log file under the
// biome home. logging.format=json switches the file, not stderr, to JSON
// lines. If the file cannot be opened it falls back to stderr alone.
func (f *LoggerFactory) DaemonLogger() *slog.Logger {
	level := f.effectiveLevel()
	console := NewHandler(f.stderr, &slog.HandlerOptions{Level: level})

	logPath, err := paths.GetLogPath()
	if err != nil {
		return slog.New(console)
	}
	lc := f.config.Logging
	fileLogger, closer, err := NewFileLogger(logPath, level, FileOptions{
		MaxSize:    ParseSize(lc.MaxSize),
		MaxBackups: lc.MaxBackups,
		Compress:   lc.Compress,
		JSON:       strings.EqualFold(lc.Format, "json"),
	})
	if err != nil {
		slog.New(console).Warn("Cannot open log file", "path", logPath, "error", err)
		return slog.New(console)
	}
	f.closers = append(f.closers, closer)
	return slog.New(NewTeeHandler(console, fileLogger.Handler()))
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
