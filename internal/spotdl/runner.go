package spotdl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/jmagar/tunegrab/internal/model"
)

// tailLines is how much backend output is kept for error classification.
const tailLines = 60

// Runner executes spotdl once per request.
type Runner struct {
	Opts Options
	// OnEvent receives parsed progress lines. Called from reader goroutines
	// under a mutex, so handlers need no locking of their own.
	OnEvent func(ev Event)
	// Echo receives every raw output line when set.
	Echo io.Writer
}

// NewRunner returns a runner for opts.
func NewRunner(opts Options) *Runner {
	return &Runner{Opts: opts}
}

// Name implements the download backend interface.
func (r *Runner) Name() model.Backend {
	return model.BackendSpotdl
}

// Run invokes spotdl for req and waits for it to exit. A non-zero exit, or
// a zero exit with metadata or no-results errors in the output, yields a
// *model.BackendError classified from the captured output.
func (r *Runner) Run(ctx context.Context, req model.Request) (*model.RunResult, error) {
	args := BuildArgs(req, r.Opts)
	slog.Debug("running spotdl", "bin", r.Opts.Bin, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.Opts.Bin, args...)
	cmd.Env = append(os.Environ(), "PYTHONUTF8=1", "PYTHONIOENCODING=utf-8")
	result := &model.RunResult{}
	lookupFailures := 0

	waitErr := r.stream(cmd, func(ev Event) {
		switch ev.Type {
		case EventFound:
			result.Found = ev.Count
			result.Title = ev.Title
		case EventDownloaded:
			result.Downloaded++
		case EventSkipped:
			result.Skipped++
		case EventLookupFailed:
			lookupFailures++
		}
	}, &result.Stderr)

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, &model.BackendError{
				Backend: model.BackendSpotdl,
				Class:   model.ClassUnknown,
				Stderr:  result.Stderr,
				Err:     fmt.Errorf("attempt timed out: %w", ctx.Err()),
			}
		}
		return result, fmt.Errorf("%w: %w", model.ErrCancelled, ctx.Err())
	}
	if waitErr == nil {
		return result, cleanExitError(result, lookupFailures)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &model.BackendError{
			Backend:  model.BackendSpotdl,
			Class:    ClassifyOutput(result.Stderr),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	if errors.Is(waitErr, exec.ErrNotFound) {
		return result, fmt.Errorf("%w: %s: %w", model.ErrBackendMissing, r.Opts.Bin, waitErr)
	}
	return result, fmt.Errorf("failed to run %s: %w", r.Opts.Bin, waitErr)
}

// cleanExitError checks the output of a zero exit. spotdl reports songs it
// could not match or tag on stderr and still exits 0.
func cleanExitError(result *model.RunResult, lookupFailures int) error {
	class := ClassifyOutput(result.Stderr)
	nothing := result.Downloaded == 0 && result.Skipped == 0
	if class.Retryable() && !(nothing && lookupFailures > 0) {
		return nil
	}
	if class.Retryable() {
		class = model.ClassNoResults
	}
	be := &model.BackendError{
		Backend: model.BackendSpotdl,
		Class:   class,
		Stderr:  result.Stderr,
	}
	if nothing {
		be.Err = model.ErrNothingDownloaded
	}
	return be
}

// stream starts cmd and scans stdout and stderr line by line until exit.
// The trailing output of both streams is stored in tail.
func (r *Runner) stream(cmd *exec.Cmd, onEvent func(Event), tail *string) error {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		lines []string
	)

	consume := func(rd io.Reader, wg *sync.WaitGroup) {
		defer wg.Done()
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		scanner.Split(scanLinesOrCR)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			mu.Lock()
			lines = append(lines, line)
			if len(lines) > tailLines {
				lines = lines[len(lines)-tailLines:]
			}
			if r.Echo != nil {
				fmt.Fprintln(r.Echo, line)
			}
			if ev, ok := ParseLine(line); ok {
				onEvent(ev)
				if r.OnEvent != nil {
					r.OnEvent(ev)
				}
			}
			mu.Unlock()
		}
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go consume(stdoutPipe, &wg)
	go consume(stderrPipe, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	*tail = strings.Join(lines, "\n")
	return waitErr
}

// scanLinesOrCR splits on either '\n' or '\r' so carriage-return progress
// redraws arrive as separate lines.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, bytes.TrimSpace(data[:i]), nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}
