package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/jmagar/tunegrab/internal/model"
)

// Check makes sure a yt-dlp executable is available and returns its path
// and version. An explicit bin must exist; otherwise PATH is searched and,
// with autoInstall, go-ytdlp downloads a cached copy.
func Check(ctx context.Context, bin string, autoInstall bool) (string, string, error) {
	if bin = strings.TrimSpace(bin); bin != "" {
		resolved, err := exec.LookPath(bin)
		if err != nil {
			if info, statErr := os.Stat(bin); statErr == nil && !info.IsDir() {
				resolved = bin
			} else {
				return "", "", fmt.Errorf("%w: configured yt-dlp not found: %s", model.ErrBackendMissing, bin)
			}
		}
		return resolved, version(ctx, resolved), nil
	}

	if resolved, err := exec.LookPath("yt-dlp"); err == nil {
		return resolved, version(ctx, resolved), nil
	}
	if !autoInstall {
		return "", "", fmt.Errorf("%w: yt-dlp not found in PATH", model.ErrBackendMissing)
	}

	installed, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: yt-dlp install failed: %w", model.ErrBackendMissing, err)
	}
	return installed.Executable, installed.Version, nil
}

func version(ctx context.Context, bin string) string {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
