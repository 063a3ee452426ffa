// Package rclone uploads finished downloads to a remote with the rclone CLI.
package rclone

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// rclone exits with 3 when a directory is not found.
const exitDirNotFound = 3

// ErrNotInstalled is returned when the rclone binary cannot be run.
var ErrNotInstalled = errors.New("rclone is not installed or not available in PATH")

// CheckRcloneAvailable verifies rclone can be run and, unless quiet,
// prints its version.
func CheckRcloneAvailable(quiet bool) error {
	out, err := exec.Command("rclone", "version").Output()
	if err != nil {
		return fmt.Errorf("%w: %w\nInstall rclone from https://rclone.org/downloads/ or set rcloneEnabled to false",
			ErrNotInstalled, err)
	}
	if !quiet {
		first, _, _ := strings.Cut(string(out), "\n")
		ui.PrintSuccess("Rclone is available: " + strings.TrimSpace(first))
	}
	return nil
}

// RemoteTarget returns the remote:path prefix uploads are written under.
func RemoteTarget(cfg *model.Config) string {
	return cfg.RcloneRemote + ":" + helpers.GetRcloneBasePath(cfg)
}

// RemoteStatus describes whether the configured remote answers, for
// display in `tunegrab config show`.
func RemoteStatus(ctx context.Context, cfg *model.Config) string {
	if !cfg.RcloneEnabled {
		return "Disabled"
	}
	if strings.TrimSpace(cfg.RcloneRemote) == "" {
		return "Offline (remote not configured)"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := exec.CommandContext(ctx, "rclone", "lsf", "--max-depth", "1", RemoteTarget(cfg)).Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return "Online"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "Offline (timeout)"
	case errors.As(err, &exitErr) && exitErr.ExitCode() == exitDirNotFound:
		return "Online (path missing)"
	default:
		return "Offline"
	}
}

// Upload copies localPath below remoteDir with a default Uploader.
func Upload(ctx context.Context, cfg *model.Config, localPath, remoteDir string) error {
	return NewUploader(cfg).Upload(ctx, localPath, remoteDir)
}
