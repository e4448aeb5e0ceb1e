// Package singleton provides a single-instance guard keyed by a stable
// identifier, the portable equivalent of the original's RunGuard
// (QSharedMemory + QSystemSemaphore). No cross-platform named-mutex
// library appears anywhere in the retrieval pack, so this uses the
// portable substitute available without one: an exclusively-created lock
// file holding the owner's PID. A lock file left behind by a process that
// died is detected through that PID and reclaimed by the next TryAcquire.
package singleton

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Guard holds an exclusive lock file for the process's lifetime.
type Guard struct {
	path string
	f    *os.File
}

// TryAcquire attempts to become the sole instance identified by key,
// storing lock files under dir. It returns (nil, false, nil) if another
// live process already holds the lock, or an error for any other failure.
func TryAcquire(dir, key string) (*Guard, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("singleton: create lock dir: %w", err)
	}
	path := filepath.Join(dir, sanitize(key)+".lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, false, fmt.Errorf("singleton: create lock file: %w", err)
		}
		if held, staleErr := holderIsAlive(path); staleErr == nil && held {
			return nil, false, nil
		}
		// stale lock from a dead process: reclaim it.
		if err := os.Remove(path); err != nil {
			return nil, false, fmt.Errorf("singleton: remove stale lock: %w", err)
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, false, fmt.Errorf("singleton: create lock file after reclaim: %w", err)
		}
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, false, fmt.Errorf("singleton: write pid: %w", err)
	}
	return &Guard{path: path, f: f}, true, nil
}

// Release closes and removes the lock file. Safe to call once.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	g.f.Close()
	g.f = nil
	return os.Remove(g.path)
}

func holderIsAlive(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	// Signal 0 probes for existence without affecting the process; on Unix
	// os.FindProcess always succeeds, so this Signal call is what actually
	// detects liveness.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}

func sanitize(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
