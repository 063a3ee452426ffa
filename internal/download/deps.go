// Package download runs link requests through a backend with retries,
// moves finished files into the output tree and post-processes them.
package download

import (
	"context"
	"time"

	"github.com/jmagar/tunegrab/internal/model"
)

// Deps holds callbacks the engine needs from the caller. Any field may be nil.
type Deps struct {
	// Upload sends a finished file or folder to remote storage.
	// remoteDir is relative to the configured rclone path.
	Upload func(ctx context.Context, localPath, remoteDir string) error

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnOutcome is called once per request after all attempts finished.
	OnOutcome func(out *model.Outcome)
}

func (d *Deps) sleep(ctx context.Context, wait time.Duration) error {
	if d != nil && d.Sleep != nil {
		return d.Sleep(ctx, wait)
	}
	return sleepCtx(ctx, wait)
}

func (d *Deps) outcome(out *model.Outcome) {
	if d != nil && d.OnOutcome != nil {
		d.OnOutcome(out)
	}
}

func sleepCtx(ctx context.Context, wait time.Duration) error {
	if ctx.Err() != nil {
		return model.ErrCancelled
	}
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return model.ErrCancelled
	case <-timer.C:
		return nil
	}
}
