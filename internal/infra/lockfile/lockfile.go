// Package lockfile guards a data directory or port against a second
// memkv-server instance using an advisory file lock.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lockfile: already locked by another process")

// Lock is a held advisory lock. The owning PID is written into the file
// for operators; the lock itself is the flock, not the contents.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without blocking.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: create dir: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: %w", err)
	}
	if !ok {
		if pid, perr := ReadPID(path); perr == nil {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}
		return nil, ErrLocked
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("lockfile: write pid: %w", err)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		_ = l.fl.Unlock()
		return fmt.Errorf("lockfile: remove: %w", err)
	}
	return l.fl.Unlock()
}

// ReadPID returns the PID recorded in the lock file at path.
func ReadPID(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
