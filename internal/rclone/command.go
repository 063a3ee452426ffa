package rclone

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
)

// RemotePath joins remoteDir and the base name of localPath under the
// configured remote.
func RemotePath(cfg *model.Config, localPath, remoteDir string) string {
	parts := []string{RemoteTarget(cfg)}
	if dir := strings.Trim(filepath.ToSlash(remoteDir), "/"); dir != "" && dir != "." {
		parts = append(parts, dir)
	}
	parts = append(parts, filepath.Base(localPath))
	return strings.Join(parts, "/")
}

// BuildRcloneUploadCommand returns the rclone command that uploads
// localPath and the remote path it ends up at. Folders use copy, single
// files use copyto.
func BuildRcloneUploadCommand(ctx context.Context, localPath, remoteDir string, cfg *model.Config, transfers int) (*exec.Cmd, string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat local path: %w", err)
	}
	if transfers < 1 {
		transfers = model.DefaultRcloneXfers
	}

	remote := RemotePath(cfg, localPath, remoteDir)
	verb := "copyto"
	if info.IsDir() {
		verb = "copy"
	}
	args := []string{
		verb, localPath, remote,
		fmt.Sprintf("--transfers=%d", transfers),
		"--progress", "--stats=1s", "--stats-one-line",
	}
	return exec.CommandContext(ctx, "rclone", args...), remote, nil
}

// BuildRcloneVerifyCommand returns an `rclone check --one-way` comparing
// localPath with its uploaded copy. A file is checked through its parent
// folder with an --include filter.
func BuildRcloneVerifyCommand(ctx context.Context, localPath, remote string) (*exec.Cmd, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat local path for verification: %w", err)
	}
	if info.IsDir() {
		return exec.CommandContext(ctx, "rclone", "check", "--one-way", localPath, remote), nil
	}
	return exec.CommandContext(ctx, "rclone", "check", "--one-way",
		"--include", filepath.Base(localPath), filepath.Dir(localPath), path.Dir(remote)), nil
}
