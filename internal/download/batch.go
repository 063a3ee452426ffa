package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmagar/tunegrab/internal/links"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

type job struct {
	pos    int
	target string
	index  int
}

// run processes jobs with up to cfg.MaxParallel workers and calls done for
// each outcome. Jobs not started before ctx is cancelled are reported as
// cancelled without running.
func (e *Engine) run(ctx context.Context, jobs []job, done func(job, *model.Outcome)) {
	workers := e.cfg.MaxParallel
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	ui.ResetRunCounters()
	state := &model.BatchProgressState{TotalItems: len(jobs), StartTime: time.Now()}
	var stateMu sync.Mutex

	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				var out *model.Outcome
				if ctx.Err() != nil {
					out = &model.Outcome{Request: links.NewRequest(j.target, ""), Err: model.ErrCancelled}
				} else {
					stateMu.Lock()
					state.CurrentItem++
					state.CurrentTitle = j.target
					state.Validate()
					ui.PrintInfo(fmt.Sprintf("Processing URL %d/%d: %s", j.pos, state.TotalItems, j.target))
					stateMu.Unlock()

					out = e.Download(ctx, links.NewRequest(j.target, ""))
				}

				stateMu.Lock()
				switch {
				case out.OK():
					state.Complete++
				case errors.Is(out.Err, model.ErrCancelled):
					state.Skipped++
				default:
					state.Failed++
				}
				state.Validate()
				stateMu.Unlock()

				done(j, out)
			}
		}()
	}

	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()
	e.CleanupStaging()
}

// Batch downloads the pending entries of a link file and marks each one
// DOWNLOADED or FAILED as soon as it finishes. Cancelled entries stay
// unmarked. FAILED entries are retried when retryFailed is set.
func (e *Engine) Batch(ctx context.Context, ledger *links.Ledger, retryFailed bool) (*Summary, error) {
	entries := ledger.Entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNoLinks, ledger.Path())
	}
	pending := ledger.Pending(retryFailed)
	sum := NewSummary(ledger.Path(), len(pending))
	sum.AlreadyDone = len(entries) - len(pending)

	downloaded, failed, _ := ledger.Counts()
	ui.PrintInfo(fmt.Sprintf("%d link(s) in %s: %d to process, %d downloaded, %d failed",
		len(entries), ledger.Path(), len(pending), downloaded, failed))
	if len(pending) == 0 {
		ui.PrintSuccess("Nothing to do, every link is already processed")
		sum.Finish()
		return sum, nil
	}

	jobs := make([]job, len(pending))
	for i, entry := range pending {
		jobs[i] = job{pos: i + 1, target: entry.URL, index: entry.Index}
	}

	e.run(ctx, jobs, func(j job, out *model.Outcome) {
		sum.Add(out)
		if errors.Is(out.Err, model.ErrCancelled) {
			return
		}
		status := links.StatusFailed
		if out.OK() {
			status = links.StatusDownloaded
		}
		if err := ledger.Mark(j.index, status); err != nil {
			ui.PrintWarning(err.Error())
			return
		}
		if err := ledger.Save(); err != nil {
			ui.PrintWarning(fmt.Sprintf("Failed to update %s: %v", ledger.Path(), err))
		}
	})

	sum.Finish()
	return sum, nil
}

// DownloadAll downloads direct targets (links or search queries).
func (e *Engine) DownloadAll(ctx context.Context, targets []string) *Summary {
	sum := NewSummary("", len(targets))
	jobs := make([]job, len(targets))
	for i, target := range targets {
		jobs[i] = job{pos: i + 1, target: target, index: i}
	}
	if len(jobs) > 0 {
		e.run(ctx, jobs, func(_ job, out *model.Outcome) { sum.Add(out) })
	}
	sum.Finish()
	return sum
}

// Account downloads one of the user's Spotify library collections.
func (e *Engine) Account(ctx context.Context, op string) *Summary {
	sum := NewSummary("account:"+op, 1)
	out := e.Download(ctx, links.NewAccountRequest(op, ""))
	e.CleanupStaging()
	sum.Add(out)
	sum.Finish()
	return sum
}
