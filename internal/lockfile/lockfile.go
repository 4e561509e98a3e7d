// Package lockfile serializes mutating operations across concurrent
// invocations with an advisory flock on a well-known file. The lock
// protects the read-modify-write cycles over shared configuration and
// credential files; it does not guard against other tools editing those
// files directly.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryAcquire when another process holds the
// lock.
var ErrLocked = errors.New("lockfile: already locked by another process")

// Lock is a held advisory lock. Release it with Release; the lock is
// also dropped by the kernel when the process exits.
type Lock struct {
	file *os.File
}

// Acquire blocks until the advisory lock on path is held. The lock
// file and its parent directory are created when missing.
func Acquire(path string) (*Lock, error) {
	return acquire(path, 0)
}

// TryAcquire takes the lock without blocking, returning ErrLocked when
// it is held elsewhere.
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_NB)
}

func acquire(path string, flags int) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|flags); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// Release drops the lock and closes the lock file. Safe to call once.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return l.file.Close()
}
