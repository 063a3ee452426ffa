package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/journal"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// stagingDirName is the work area used under outPath when parallel
// downloads run without a configured staging path.
const stagingDirName = ".tunegrab-staging"

// Backend downloads one request with an external tool.
type Backend interface {
	Name() model.Backend
	Run(ctx context.Context, req model.Request) (*model.RunResult, error)
}

// Engine drives requests through their backend.
type Engine struct {
	cfg      *model.Config
	backends map[model.Backend]Backend
	journal  *journal.Journal
	deps     *Deps
}

// NewEngine returns an engine dispatching to the given backends.
// A nil journal disables the JSONL logs.
func NewEngine(cfg *model.Config, j *journal.Journal, deps *Deps, backends ...Backend) *Engine {
	e := &Engine{
		cfg:      cfg,
		backends: make(map[model.Backend]Backend, len(backends)),
		journal:  j,
		deps:     deps,
	}
	for _, b := range backends {
		if b != nil {
			e.backends[b.Name()] = b
		}
	}
	return e
}

func (e *Engine) maxAttempts() int {
	if e.cfg.MaxRetries < 1 {
		return 1
	}
	return e.cfg.MaxRetries
}

func (e *Engine) retryDelay() time.Duration {
	if e.cfg.RetryDelayDur < 0 {
		return 0
	}
	return e.cfg.RetryDelayDur
}

// staged reports whether requests download into a private work directory
// before being moved into outPath.
func (e *Engine) staged() bool {
	return e.cfg.StagingPath != "" || e.cfg.MaxParallel > 1
}

func (e *Engine) stagingRoot() string {
	if e.cfg.StagingPath != "" {
		return e.cfg.StagingPath
	}
	return filepath.Join(e.cfg.OutPath, stagingDirName)
}

// Fetch runs req until it succeeds, hits a non-retryable error or runs out
// of attempts. Files holds the audio files that appeared in req.OutputDir.
func (e *Engine) Fetch(ctx context.Context, req model.Request) *model.Outcome {
	start := time.Now()
	out := &model.Outcome{Request: req}
	defer func() { out.Duration = time.Since(start) }()

	backend, ok := e.backends[req.Backend]
	if !ok {
		out.Err = fmt.Errorf("%w: %s", model.ErrBackendMissing, req.Backend)
		return out
	}
	if err := helpers.MakeDirs(req.OutputDir); err != nil {
		out.Err = fmt.Errorf("failed to create output directory: %w", err)
		return out
	}

	before := snapshotAudio(req.OutputDir)
	maxAttempts := e.maxAttempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			out.Err = model.ErrCancelled
			return out
		}
		out.Attempts = attempt
		ui.PrintDownload(fmt.Sprintf("Downloading (%d/%d tries): %s", attempt, maxAttempts, req.Target))

		res, err := e.runAttempt(ctx, backend, req)
		if err == nil {
			out.Err = nil
			if res != nil {
				out.Skipped = res.Skipped
			}
			break
		}
		out.Err = err
		e.journal.AttemptError(req, attempt, err)
		if res != nil && res.Stderr != "" {
			slog.Debug("backend output", "url", req.Target, "attempt", attempt, "output", res.Stderr)
		}

		if errors.Is(err, model.ErrCancelled) {
			return out
		}
		if !model.IsRetryable(err) {
			ui.PrintError(fmt.Sprintf("Non-retryable error for %s: %s", req.Target, describe(err)))
			break
		}
		if attempt == maxAttempts {
			ui.PrintError(fmt.Sprintf("Failed to download after %d attempts: %s", maxAttempts, req.Target))
			break
		}
		delay := e.retryDelay()
		ui.PrintWarning(fmt.Sprintf("Download failed (%s). Retrying in %s...", describe(err), delay))
		if err := e.deps.sleep(ctx, delay); err != nil {
			out.Err = model.ErrCancelled
			return out
		}
	}

	out.Files = newAudio(req.OutputDir, before)
	if out.OK() {
		ui.PrintSuccess("Successfully downloaded: " + req.Target)
		if len(out.Files) == 0 && out.Skipped == 0 {
			ui.PrintWarning("No new files were written for " + req.Target)
		}
	}
	return out
}

func (e *Engine) runAttempt(ctx context.Context, backend Backend, req model.Request) (*model.RunResult, error) {
	attemptCtx := ctx
	if e.cfg.DownloadTimeoutDur > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.DownloadTimeoutDur)
		defer cancel()
	}
	return backend.Run(attemptCtx, req)
}

func describe(err error) string {
	var be *model.BackendError
	if errors.As(err, &be) {
		return be.Class.Describe()
	}
	if errors.Is(err, model.ErrBackendMissing) {
		return err.Error()
	}
	return model.ClassUnknown.Describe()
}

// Download fetches req into the output tree, then runs post-processing
// and records the outcome. An empty req.OutputDir means outPath.
func (e *Engine) Download(ctx context.Context, req model.Request) *model.Outcome {
	if req.OutputDir == "" {
		req.OutputDir = e.cfg.OutPath
	}
	finalDir := req.OutputDir

	var workDir string
	if e.staged() {
		workDir = filepath.Join(e.stagingRoot(), "tg-"+uuid.NewString())
		req.OutputDir = workDir
	}

	out := e.Fetch(ctx, req)
	if workDir != "" {
		moved, err := MoveFiles(workDir, finalDir, out.Files)
		if err != nil && out.Err == nil {
			out.Err = err
		}
		out.Files = moved
		out.Request.OutputDir = finalDir
		if err := os.RemoveAll(workDir); err != nil {
			slog.Warn("failed to remove work directory", "dir", workDir, "error", err)
		}
	}
	out.Bytes = helpers.SumFileSizes(out.Files)

	if out.OK() {
		e.postProcess(ctx, out)
		e.journal.Downloaded(out)
	} else if !errors.Is(out.Err, model.ErrCancelled) {
		e.journal.Failed(out)
	}
	e.deps.outcome(out)
	return out
}

// CleanupStaging removes the staging root, configured or default, once it
// is empty. A root still holding files is left alone.
func (e *Engine) CleanupStaging() {
	root := e.stagingRoot()
	if err := os.Remove(root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("staging directory kept", "dir", root, "error", err)
	}
}
