// Package helpers holds small filesystem and input helpers shared by the
// command and download packages.
package helpers

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
)

// ErrInvalidPath is returned by ValidatePath.
var ErrInvalidPath = errors.New("path contains invalid characters")

// Sanitise makes name safe to use as a single path element on every
// platform tunegrab runs on.
func Sanitise(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return strings.TrimRight(clean, " \t.")
}

// MakeDirs creates path and any missing parents.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists reports whether path is an existing regular file. Directories
// report false.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return !info.IsDir(), nil
}

// ValidatePath rejects paths with NUL bytes or line breaks, which cannot
// be passed safely to external tools.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return ErrInvalidPath
	}
	return nil
}

// GetRcloneBasePath returns the remote base folder without a trailing slash.
func GetRcloneBasePath(cfg *model.Config) string {
	if cfg == nil {
		return ""
	}
	return strings.TrimRight(cfg.RclonePath, "/")
}

// RelDir returns dir relative to root in slash form, or "" when dir is
// root itself or outside of it.
func RelDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// CalculateLocalSize returns the size of a file, or the combined size of
// every file below a folder. Unreadable entries are skipped.
func CalculateLocalSize(localPath string) int64 {
	var total int64
	_ = filepath.WalkDir(localPath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// SumFileSizes adds up the sizes of files, ignoring missing ones.
func SumFileSizes(files []string) int64 {
	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			continue
		}
		total += info.Size()
	}
	return total
}
