package slogutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// FileOptions controls the daemon log file.
type FileOptions struct {
	MaxSize    int64 // bytes; <= 0 never rotates
	MaxBackups int   // 0 drops the old file on rotation
	Compress   bool  // gzip rotated backups
	JSON       bool  // slog JSON lines instead of the biome line format
}

// RotatingFile appends to path and, once a write would take it past
// MaxSize, shifts it to path.1 (path.1.gz when compressing), path.2 and so
// on, keeping at most MaxBackups.
type RotatingFile struct {
	path string
	opts FileOptions

	mu   sync.Mutex
	file *os.File
	size int64
}

func OpenRotatingFile(path string, opts FileOptions) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	rf := &RotatingFile{path: path, opts: opts}
	if err := rf.reopen(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *RotatingFile) reopen() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	r.file, r.size = f, st.Size()
	return nil
}

// Write rotates first when p would overflow the file. The write is
// attempted even if rotation fails.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return 0, os.ErrClosed
	}
	if r.opts.MaxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.opts.MaxSize {
		if err := r.rotate(); err != nil && r.file == nil {
			return 0, err
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *RotatingFile) backup(n int) string {
	name := r.path + "." + strconv.Itoa(n)
	if r.opts.Compress {
		name += ".gz"
	}
	return name
}

func (r *RotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	r.file = nil

	if r.opts.MaxBackups <= 0 {
		_ = os.Remove(r.path)
	} else {
		_ = os.Remove(r.backup(r.opts.MaxBackups))
		for n := r.opts.MaxBackups - 1; n >= 1; n-- {
			_ = os.Rename(r.backup(n), r.backup(n+1))
		}
		if r.opts.Compress {
			if err := gzipFile(r.path, r.backup(1)); err != nil {
				return errors.Join(err, r.reopen())
			}
			_ = os.Remove(r.path)
		} else {
			_ = os.Rename(r.path, r.backup(1))
		}
	}
	return r.reopen()
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	_, err = io.Copy(zw, in)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", src, err)
	}
	return nil
}

var sizeUnits = []struct {
	suffix string
	mult   float64
}{
	{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1},
}

// ParseSize reads "10MB", "512kb", "1.5GB" or a plain byte count. Empty or
// malformed input yields 0.
func ParseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := 1.0
	for _, u := range sizeUnits {
		if rest, ok := strings.CutSuffix(s, u.suffix); ok {
			s, mult = strings.TrimSpace(rest), u.mult
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int64(v * mult)
}

// NewFileLogger opens path as a rotating log file.
func NewFileLogger(path string, level slog.Level, opts FileOptions) (*slog.Logger, io.Closer, error) {
	rf, err := OpenRotatingFile(path, opts)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(rf, hopts)), rf, nil
	}
	return slog.New(NewHandler(rf, hopts)), rf, nil
}
