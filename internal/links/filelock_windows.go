//go:build windows

package links

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Windows has no flock; the lock is the existence of the file.
func tryLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	return f, nil
}

func unlock(f *os.File, path string) error {
	closeErr := f.Close()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return closeErr
}
