package rclone

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// Uploader copies download units to the configured remote. With
// deleteAfterUpload the remote copy is verified with `rclone check` before
// local files are removed. The function fields are swapped in tests.
type Uploader struct {
	cfg *model.Config

	localSize   func(path string) int64
	buildUpload func(ctx context.Context, localPath, remoteDir string, cfg *model.Config, transfers int) (*exec.Cmd, string, error)
	buildVerify func(ctx context.Context, localPath, remote string) (*exec.Cmd, error)
	runUpload   func(cmd *exec.Cmd, onProgress func(Progress)) error
	runVerify   func(cmd *exec.Cmd) error
	removeAll   func(path string) error
}

// NewUploader returns an Uploader for cfg.
func NewUploader(cfg *model.Config) *Uploader {
	return &Uploader{
		cfg:         cfg,
		localSize:   helpers.CalculateLocalSize,
		buildUpload: BuildRcloneUploadCommand,
		buildVerify: BuildRcloneVerifyCommand,
		runUpload:   RunRcloneWithProgress,
		runVerify:   func(cmd *exec.Cmd) error { return cmd.Run() },
		removeAll:   os.RemoveAll,
	}
}

// Upload copies localPath (a file or folder) into remoteDir, a path
// relative to the configured rclone path. Disabled uploads are a no-op.
func (u *Uploader) Upload(ctx context.Context, localPath, remoteDir string) error {
	if !u.cfg.RcloneEnabled {
		return nil
	}
	if err := helpers.ValidatePath(localPath); err != nil {
		return fmt.Errorf("invalid local path: %w", err)
	}
	if remoteDir != "" {
		if err := helpers.ValidatePath(remoteDir); err != nil {
			return fmt.Errorf("invalid remote dir: %w", err)
		}
	}

	cmd, remote, err := u.buildUpload(ctx, localPath, remoteDir, u.cfg, u.cfg.RcloneTransfers)
	if err != nil {
		return err
	}
	ui.PrintUpload(fmt.Sprintf("Uploading %s to %s%s%s...",
		humanize.Bytes(uint64(u.localSize(localPath))), ui.ColorBold, remote, ui.ColorReset))
	err = u.runUpload(cmd, nil)
	ui.EndProgress()
	if err != nil {
		return fmt.Errorf("rclone upload failed: %w", err)
	}
	ui.PrintSuccess("Upload complete: " + remote)

	if !u.cfg.DeleteAfterUpload {
		return nil
	}
	verify, err := u.buildVerify(ctx, localPath, remote)
	if err != nil {
		return fmt.Errorf("failed to build upload verification command: %w", err)
	}
	var out bytes.Buffer
	verify.Stdout, verify.Stderr = &out, &out
	if err := u.runVerify(verify); err != nil {
		return fmt.Errorf("upload verification failed, keeping local files: %w\n%s", err, bytes.TrimSpace(out.Bytes()))
	}
	if err := u.removeAll(localPath); err != nil {
		return fmt.Errorf("failed to delete local files: %w", err)
	}
	ui.PrintSuccess("Upload verified, local files deleted")
	return nil
}
