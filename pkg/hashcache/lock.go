package hashcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the cache lock
var ErrLocked = errors.New("hash cache is locked by another run")

// Lock is an exclusive advisory lock on a cache file
type Lock struct {
	flock *flock.Flock
}

// Acquire takes the lock file next to the cache at path without blocking
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock hash cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}

	return &Lock{flock: fl}, nil
}

// Release drops the lock. The lock file stays on disk: removing it would
// let a waiter on the old inode and a newcomer on a fresh file both hold it.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock hash cache: %w", err)
	}
	return nil
}
