package download

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
)

// snapshotAudio lists the audio files currently below dir.
func snapshotAudio(dir string) map[string]struct{} {
	files := make(map[string]struct{})
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && d.Name() == stagingDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if isAudio(path) {
			files[path] = struct{}{}
		}
		return nil
	})
	return files
}

// newAudio returns the audio files below dir that are not in before, sorted.
func newAudio(dir string, before map[string]struct{}) []string {
	var out []string
	for path := range snapshotAudio(dir) {
		if _, seen := before[path]; !seen {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func isAudio(path string) bool {
	return model.AudioExtensions[strings.ToLower(filepath.Ext(path))]
}

// MoveFiles moves files from below src to the same relative location below
// dst. Files that already exist at the destination are left in place and
// the staged copy is dropped. It returns the destination paths of the
// files that were moved.
func MoveFiles(src, dst string, files []string) ([]string, error) {
	var moved []string
	for _, f := range files {
		rel, err := filepath.Rel(src, f)
		if err != nil || strings.HasPrefix(rel, "..") {
			return moved, fmt.Errorf("file %s is outside %s", f, src)
		}
		target := filepath.Join(dst, rel)
		exists, err := helpers.FileExists(target)
		if err != nil {
			return moved, err
		}
		if exists {
			slog.Info("file already exists, skipping", "path", target)
			_ = os.Remove(f)
			continue
		}
		if err := helpers.MakeDirs(filepath.Dir(target)); err != nil {
			return moved, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		if err := moveFile(f, target); err != nil {
			return moved, err
		}
		moved = append(moved, target)
	}
	return moved, nil
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, renameErr)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// groupByDir maps each parent directory to the files it holds, in order.
func groupByDir(files []string) (dirs []string, byDir map[string][]string) {
	byDir = make(map[string][]string)
	for _, f := range files {
		dir := filepath.Dir(f)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], f)
	}
	return dirs, byDir
}
