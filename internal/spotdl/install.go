package spotdl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
)

// ErrPythonMissing is returned when no python interpreter is available to
// install spotdl with.
var ErrPythonMissing = errors.New("no python interpreter found (tried python3, python, py)")

// Tool manages the spotdl installation.
type Tool struct {
	Bin    string
	Python string
	// Out receives installer output. Discarded when nil.
	Out io.Writer
}

// NewTool returns a Tool for the configured spotdl and python binaries.
func NewTool(cfg *model.Config) Tool {
	bin := strings.TrimSpace(cfg.SpotdlBin)
	if bin == "" {
		bin = model.DefaultSpotdlBin
	}
	return Tool{Bin: bin, Python: strings.TrimSpace(cfg.PythonBin)}
}

// Check verifies spotdl is installed and returns its version. When it is
// missing and autoInstall is set, spotdl is installed with pip first.
func (t Tool) Check(ctx context.Context, autoInstall bool) (string, error) {
	if _, err := exec.LookPath(t.Bin); err != nil {
		if !autoInstall {
			return "", fmt.Errorf("%w: %s not found in PATH", model.ErrBackendMissing, t.Bin)
		}
		slog.Info("spotdl not found, installing", "bin", t.Bin)
		if err := t.Install(ctx); err != nil {
			return "", err
		}
		if _, err := exec.LookPath(t.Bin); err != nil {
			return "", fmt.Errorf("%w: installed spotdl but %s is still not in PATH", model.ErrBackendMissing, t.Bin)
		}
	}

	version, err := t.Version(ctx)
	if err != nil {
		slog.Warn("could not determine spotdl version", "err", err)
		return "", nil
	}
	return version, nil
}

// Version returns the output of `spotdl --version`.
func (t Tool) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.Bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get spotdl version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Install runs `python -m pip install spotdl`.
func (t Tool) Install(ctx context.Context) error {
	python, err := t.resolvePython()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrBackendMissing, err)
	}
	cmd := exec.CommandContext(ctx, python, "-m", "pip", "install", "spotdl")
	var stderr bytes.Buffer
	cmd.Stdout = t.out()
	cmd.Stderr = io.MultiWriter(t.out(), &stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: pip install spotdl failed: %w: %s", model.ErrBackendMissing, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EnsureFfmpeg makes sure spotdl can find ffmpeg. An explicit ffmpegPath
// or an ffmpeg on PATH is accepted as is; otherwise spotdl downloads its
// own copy when autoInstall is set.
func (t Tool) EnsureFfmpeg(ctx context.Context, ffmpegPath string, autoInstall bool) error {
	if strings.TrimSpace(ffmpegPath) != "" {
		return nil
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		return nil
	}
	if !autoInstall {
		return errors.New("ffmpeg not found in PATH (install ffmpeg or run 'spotdl --download-ffmpeg')")
	}
	cmd := exec.CommandContext(ctx, t.Bin, "--download-ffmpeg")
	cmd.Stdout = t.out()
	cmd.Stderr = t.out()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("spotdl --download-ffmpeg failed: %w", err)
	}
	return nil
}

// Help returns spotdl's own help text.
func (t Tool) Help(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.Bin, "--help").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("could not get spotdl help: %w", err)
	}
	return string(out), nil
}

func (t Tool) resolvePython() (string, error) {
	candidates := []string{"python3", "python", "py"}
	if t.Python != "" {
		candidates = []string{t.Python}
	}
	for _, c := range candidates {
		if resolved, err := exec.LookPath(c); err == nil {
			return resolved, nil
		}
	}
	if t.Python != "" {
		return "", fmt.Errorf("configured python not found: %s", t.Python)
	}
	return "", ErrPythonMissing
}

func (t Tool) out() io.Writer {
	if t.Out == nil {
		return io.Discard
	}
	return t.Out
}
