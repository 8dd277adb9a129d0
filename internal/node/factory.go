package node

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"biome/internal/classify"
	"biome/internal/scoring"
)

// Factory stats paths and turns them into scored, classified FileNodes.
type Factory struct {
	classifier *classify.Classifier
	now        func() time.Time
}

// NewFactory creates a factory. A nil classifier uses the built-in rules and
// a nil clock uses time.Now.
func NewFactory(classifier *classify.Classifier, now func() time.Time) *Factory {
	if classifier == nil {
		classifier = classify.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Factory{classifier: classifier, now: now}
}

// Now returns the factory's current time.
func (f *Factory) Now() time.Time { return f.now() }

// Classifier returns the classifier used for new nodes.
func (f *Factory) Classifier() *classify.Classifier { return f.classifier }

// Build stats path and returns a node for it. Directories and other
// non-regular files are rejected. The returned error wraps the stat error,
// so callers can test it with errors.Is(err, fs.ErrNotExist).
func (f *Factory) Build(path string) (FileNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileNode{}, err
	}
	if !info.Mode().IsRegular() {
		return FileNode{}, fmt.Errorf("%s is not a regular file", path)
	}
	return f.FromInfo(path, info), nil
}

// FromInfo builds a node from stat data that was already obtained.
func (f *Factory) FromInfo(path string, info os.FileInfo) FileNode {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	modTime := info.ModTime()
	c := f.classifier.Classify(path)
	score := scoring.Compute(path, scoring.Stats{Size: info.Size(), ModTime: modTime}, f.now())

	return FileNode{
		Path:           path,
		Name:           filepath.Base(path),
		Size:           info.Size(),
		Type:           c.Type,
		Category:       c.Category,
		Tags:           c.Tags,
		CreatedAt:      createdAt(info),
		ModifiedAt:     modTime,
		LastAccessedAt: modTime,
		Health:         score.Health,
		Entropy:        score.Entropy,
	}
}

// HashFile returns the hex BLAKE2b-256 digest of the file's content.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EnsureHash fills in the lazy content hash of n when it is missing.
func EnsureHash(n FileNode) (FileNode, error) {
	if n.ContentHash != "" {
		return n, nil
	}
	sum, err := HashFile(n.Path)
	if err != nil {
		return n, err
	}
	n.ContentHash = sum
	return n, nil
}
