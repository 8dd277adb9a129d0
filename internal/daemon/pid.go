// Package daemon guards the single running watch daemon with a PID file.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when a live process holds the file.
var ErrAlreadyRunning = errors.New("biome daemon is already running")

// PIDFile records the PID of the watch daemon.
type PIDFile struct {
	path string
}

// NewPIDFile returns a PID file at path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the file location.
func (p *PIDFile) Path() string { return p.path }

// Acquire writes the current PID. A file left by a dead process is replaced.
func (p *PIDFile) Acquire() error {
	pid, running, err := p.Running()
	if err != nil {
		return err
	}
	if running {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	data := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(data), 0644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Release removes the file if it still names this process.
func (p *PIDFile) Release() error {
	pid, err := p.read()
	if err != nil || pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// Running reports the recorded PID and whether that process is alive.
// A missing or unparsable file means not running.
func (p *PIDFile) Running() (int, bool, error) {
	pid, err := p.read()
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read PID file: %w", err)
	}
	return pid, processAlive(pid), nil
}

func (p *PIDFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processAlive sends signal 0, which only checks for existence.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
