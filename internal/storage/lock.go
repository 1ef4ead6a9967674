package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// RunLock is the lock file format claiming a state dir for one pipeline run.
// It only guards against a second run on the same host; it is not a
// distributed lock.
type RunLock struct {
	Holder    string    `json:"holder"`
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version"`
}

// LockPath returns the run lock file inside the state dir.
func LockPath(stateDir string) string {
	return filepath.Join(stateDir, "run.lock")
}

// AcquireRunLock creates the run lock in the state dir. A lock held by a live
// process fails; a stale lock is overwritten.
// Returns the lock for cleanup on shutdown.
func AcquireRunLock(stateDir, version string) (*RunLock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	lockPath := LockPath(stateDir)

	// Check for existing lock
	if existing, err := ReadRunLock(stateDir); err == nil {
		if isProcessAlive(existing.PID, existing.Hostname) {
			return nil, fmt.Errorf("another pipeline run is in progress (PID %d on %s, started %s)",
				existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
		}
		// Stale lock - will overwrite
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to get hostname: %w", err)
	}

	lock := &RunLock{
		Holder:    "factory",
		RunID:     uuid.NewString(),
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now().UTC(),
		Version:   version,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to create run lock: %w", err)
	}

	return lock, nil
}

// ReadRunLock returns the current lock holder, if any.
func ReadRunLock(stateDir string) (*RunLock, error) {
	data, err := os.ReadFile(LockPath(stateDir))
	if err != nil {
		return nil, err
	}
	var lock RunLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("invalid run lock: %w", err)
	}
	return &lock, nil
}

// ReleaseRunLock removes the lock file if it still belongs to this run.
// Should be called on shutdown (use defer).
func ReleaseRunLock(stateDir string, lock *RunLock) error {
	if lock == nil {
		return nil
	}
	current, err := ReadRunLock(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read run lock: %w", err)
	}
	if current.RunID != lock.RunID {
		return nil
	}

	if err := os.Remove(LockPath(stateDir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove run lock: %w", err)
	}

	return nil
}

// isProcessAlive checks if a process with the given PID exists on the given hostname.
// Returns true if the process is alive, false otherwise.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		// Can't check hostname, assume remote/alive
		return true
	}

	if !strings.EqualFold(hostname, currentHost) {
		// Remote host - can't check, assume alive
		return true
	}

	if pid <= 0 {
		return false
	}

	// Check if PID exists on localhost (Unix: kill -0)
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM: process exists but belongs to someone else
	if err == syscall.EPERM {
		return true
	}

	return false
}
