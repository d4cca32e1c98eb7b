// Package lock guards a coordinator state directory against concurrent
// coordinators. The append-only logs and counter files under a state
// directory assume exactly one writer process; a second instance pointed
// at the same directory must fail fast at startup instead of
// interleaving appends.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// lockFileName lives at the root of the state directory, alongside the
// logs it protects.
const lockFileName = "coordinator.lock"

// Handle is a held state-directory lock. Release it on shutdown; the
// kernel drops the flock anyway if the process dies first.
type Handle struct {
	f *os.File
}

// Acquire takes the single-instance lock for stateDir, recording the
// owning pid and acquisition time in the lock file so an operator
// inspecting a contended state directory can see who holds it.
func Acquire(stateDir string) (*Handle, error) {
	path := filepath.Join(stateDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("lock: open %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		owner, _ := os.ReadFile(path)
		f.Close()
		if holder := strings.TrimSpace(string(owner)); holder != "" {
			return nil, fmt.Errorf("state directory %s is locked by another coordinator (%s)", stateDir, holder)
		}
		return nil, fmt.Errorf("state directory %s is locked by another coordinator", stateDir)
	}

	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "pid=%d acquired=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))

	return &Handle{f: f}, nil
}

// Release drops the lock and removes the lock file. Safe on a nil
// Handle.
func (h *Handle) Release() {
	if h == nil || h.f == nil {
		return
	}
	syscall.Flock(int(h.f.Fd()), syscall.LOCK_UN)
	path := h.f.Name()
	h.f.Close()
	os.Remove(path)
	h.f = nil
}
