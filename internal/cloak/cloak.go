// Package cloak connects tracked files to an external cloaking program.
//
// The cloaking program encrypts a file and leaves a decoy at its original
// path. This package only hands it the path and records the integrity hash
// it reports; the node stays tracked and is marked as cloaked.
package cloak

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	biomeerrors "biome/internal/errors"
	"biome/internal/node"
)

// Receipt is what a cloaker reports for one file.
type Receipt struct {
	Path          string `json:"path"`
	IntegrityHash string `json:"integrityHash"`
}

// Cloaker protects the file at path.
type Cloaker interface {
	Cloak(ctx context.Context, path string) (Receipt, error)
}

// ExecCloaker runs an external command with the path appended as the last
// argument. The command prints the integrity hash on stdout.
type ExecCloaker struct {
	Command []string
}

// Cloak runs the configured command.
func (e ExecCloaker) Cloak(ctx context.Context, path string) (Receipt, error) {
	if len(e.Command) == 0 {
		return Receipt{}, fmt.Errorf("no cloak command configured")
	}
	args := append(append([]string(nil), e.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Receipt{}, fmt.Errorf("%s: %w: %s", e.Command[0], err, msg)
		}
		return Receipt{}, fmt.Errorf("%s: %w", e.Command[0], err)
	}

	hash := strings.TrimSpace(stdout.String())
	if hash == "" {
		return Receipt{}, fmt.Errorf("%s printed no integrity hash", e.Command[0])
	}
	return Receipt{Path: path, IntegrityHash: hash}, nil
}

// Service cloaks tracked files and records the result on their nodes.
type Service struct {
	store   *node.Store
	cloaker Cloaker
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a service. A nil clock uses time.Now.
func NewService(store *node.Store, cloaker Cloaker, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, cloaker: cloaker, now: now, logger: logger}
}

// Cloak protects the tracked file at path and marks its node as cloaked.
// Untracked paths fail with NOT_TRACKED and cloaker failures with CLOAK_FAILED.
func (s *Service) Cloak(ctx context.Context, path string) (node.FileNode, error) {
	current, ok := s.store.Get(path)
	if !ok {
		return node.FileNode{}, biomeerrors.New(biomeerrors.NotTracked, "path is not tracked: "+path, nil)
	}
	// digest of the real content; afterwards the path holds the decoy
	original, err := node.EnsureHash(current)
	if err != nil {
		s.logger.Debug("Cannot hash file before cloaking", "path", path, "error", err)
	}

	receipt, err := s.cloaker.Cloak(ctx, path)
	if err != nil {
		return node.FileNode{}, biomeerrors.New(biomeerrors.CloakFailed, "failed to cloak "+path, err)
	}

	at := s.now()
	updated, ok := s.store.Update(path, func(n node.FileNode) node.FileNode {
		n.Cloaked = true
		n.CloakedAt = at
		n.IntegrityHash = receipt.IntegrityHash
		if original.ContentHash != "" {
			n.ContentHash = original.ContentHash
		}
		return n
	})
	if !ok {
		// removed while the cloaker ran
		return node.FileNode{}, biomeerrors.New(biomeerrors.NotTracked, "path stopped being tracked: "+path, nil)
	}

	s.logger.Info("File cloaked", "path", path, "integrityHash", receipt.IntegrityHash)
	return updated, nil
}
