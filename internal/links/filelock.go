package links

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockPoll = 100 * time.Millisecond

// ErrLocked is returned when another process holds a link file lock past
// the wait limit.
var ErrLocked = errors.New("link file is locked by another process")

// FileLock is an exclusive lock on a sidecar lock file. Release it when
// the guarded write is done.
type FileLock struct {
	f    *os.File
	path string
}

// AcquireLock takes the lock at lockPath, polling until wait has passed.
// A zero wait tries exactly once.
func AcquireLock(lockPath string, wait time.Duration) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	deadline := time.Now().Add(wait)
	for {
		f, err := tryLock(lockPath)
		if err == nil {
			return &FileLock{f: f, path: lockPath}, nil
		}
		if !errors.Is(err, ErrLocked) {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w (waited %s)", ErrLocked, wait)
		}
		time.Sleep(lockPoll)
	}
}

// Release drops the lock. Calling it twice is a no-op.
func (fl *FileLock) Release() error {
	if fl == nil || fl.f == nil {
		return nil
	}
	f := fl.f
	fl.f = nil
	return unlock(f, fl.path)
}
