// Package duplicates finds byte-identical files among tracked nodes.
package duplicates

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"biome/internal/node"
)

// Duplicate pairs a later path with the first path seen for the same content.
type Duplicate struct {
	OriginalPath  string `json:"originalPath" yaml:"originalPath"`
	DuplicatePath string `json:"duplicatePath" yaml:"duplicatePath"`
	Size          int64  `json:"size" yaml:"size"`
	Hash          string `json:"hash" yaml:"hash"`
}

// Options tune the scan.
type Options struct {
	// MaxFileSize is the inclusive size ceiling for hashed files. Zero or
	// negative disables the ceiling.
	MaxFileSize int64
	// Workers bounds concurrent file reads.
	Workers int
	// ReadBytesPerSec throttles total read throughput. Zero is unlimited.
	ReadBytesPerSec int64
}

// DefaultOptions returns the default scan options
func DefaultOptions() Options {
	return Options{MaxFileSize: 1 << 20, Workers: 4}
}

// Detector hashes eligible files and reports duplicates.
type Detector struct {
	opts   Options
	logger *slog.Logger
}

// New creates a detector.
func New(opts Options, logger *slog.Logger) *Detector {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Detector{opts: opts, logger: logger}
}

// Eligible reports whether n is small enough to be hashed. Cloaked nodes
// are never hashed since their content is a decoy.
func (d *Detector) Eligible(n node.FileNode) bool {
	if n.Cloaked {
		return false
	}
	return d.opts.MaxFileSize <= 0 || n.Size <= d.opts.MaxFileSize
}

// Scan hashes every eligible node and returns the duplicates in path order.
// For each content hash the lexically first path is the original and every
// later path is reported once as its duplicate. Files that fail to read are
// skipped; only context cancellation aborts the scan.
func (d *Detector) Scan(ctx context.Context, nodes []node.FileNode) ([]Duplicate, error) {
	var eligible []node.FileNode
	for _, n := range nodes {
		if d.Eligible(n) {
			eligible = append(eligible, n)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Path < eligible[j].Path })

	hashes, err := d.hashAll(ctx, eligible)
	if err != nil {
		return nil, err
	}

	originals := make(map[string]string, len(eligible))
	var out []Duplicate
	for i, n := range eligible {
		h := hashes[i]
		if h == "" {
			continue
		}
		orig, seen := originals[h]
		if !seen {
			originals[h] = n.Path
			continue
		}
		if orig == n.Path {
			continue
		}
		out = append(out, Duplicate{
			OriginalPath:  orig,
			DuplicatePath: n.Path,
			Size:          n.Size,
			Hash:          h,
		})
	}

	d.logger.Debug("Duplicate scan complete",
		"eligible", len(eligible),
		"duplicates", len(out),
		"groups", CountGroups(out))
	return out, nil
}

func (d *Detector) hashAll(ctx context.Context, nodes []node.FileNode) ([]string, error) {
	hashes := make([]string, len(nodes))
	sem := semaphore.NewWeighted(int64(d.opts.Workers))
	limiter := d.limiter()

	// gctx is cancelled once Wait returns; only the caller's ctx decides
	// whether the scan as a whole was interrupted.
	g, gctx := errgroup.WithContext(ctx)
	for i := range nodes {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, err := hashFile(gctx, nodes[i].Path, limiter)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logger.Debug("Skipping unreadable file", "path", nodes[i].Path, "error", err)
				return nil
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hashes, nil
}

const chunkSize = 64 * 1024

func (d *Detector) limiter() *rate.Limiter {
	if d.opts.ReadBytesPerSec <= 0 {
		return nil
	}
	burst := int(d.opts.ReadBytesPerSec)
	if burst < chunkSize {
		burst = chunkSize
	}
	return rate.NewLimiter(rate.Limit(d.opts.ReadBytesPerSec), burst)
}

// hashFile returns the hex BLAKE2b-256 digest of path, waiting on limiter
// (when set) before each chunk is hashed.
func hashFile(ctx context.Context, path string, limiter *rate.Limiter) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if limiter != nil {
				if werr := limiter.WaitN(ctx, n); werr != nil {
					return "", werr
				}
			}
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CountGroups returns the number of distinct contents that have at least
// one duplicate.
func CountGroups(dups []Duplicate) int {
	seen := make(map[string]bool)
	for _, d := range dups {
		seen[d.Hash] = true
	}
	return len(seen)
}
