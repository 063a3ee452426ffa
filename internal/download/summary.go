package download

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// Exit codes reported by a finished run.
const (
	ExitOK        = 0
	ExitFatal     = 1
	ExitFailed    = 2
	ExitCancelled = 130
)

// Summary tallies the outcomes of one run.
type Summary struct {
	mu sync.Mutex

	Source      string
	Total       int
	Downloaded  int
	Failed      int
	Cancelled   int
	AlreadyDone int
	Files       int
	Bytes       int64
	FailedLinks []string
	StartTime   time.Time
	Elapsed     time.Duration
}

// NewSummary starts a summary for a run over total links.
func NewSummary(source string, total int) *Summary {
	return &Summary{Source: source, Total: total, StartTime: time.Now()}
}

// Add records one outcome. Safe for concurrent use.
func (s *Summary) Add(out *model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case out.OK():
		s.Downloaded++
		s.Files += len(out.Files)
		s.Bytes += out.Bytes
	case errors.Is(out.Err, model.ErrCancelled):
		s.Cancelled++
	default:
		s.Failed++
		s.FailedLinks = append(s.FailedLinks, out.Request.Target)
	}
}

// Merge folds another run's tallies into s. The earlier start time wins.
func (s *Summary) Merge(o *Summary) {
	if o == nil || o == s {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total += o.Total
	s.Downloaded += o.Downloaded
	s.Failed += o.Failed
	s.Cancelled += o.Cancelled
	s.AlreadyDone += o.AlreadyDone
	s.Files += o.Files
	s.Bytes += o.Bytes
	s.FailedLinks = append(s.FailedLinks, o.FailedLinks...)
	if !o.StartTime.IsZero() && o.StartTime.Before(s.StartTime) {
		s.StartTime = o.StartTime
	}
	if s.Source == "" {
		s.Source = o.Source
	} else if o.Source != "" && o.Source != s.Source {
		s.Source += ", " + o.Source
	}
}

// Finish freezes the elapsed time.
func (s *Summary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Elapsed = time.Since(s.StartTime)
}

// ExitCode maps the tallies to the process exit status.
func (s *Summary) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.Cancelled > 0:
		return ExitCancelled
	case s.Failed > 0:
		return ExitFailed
	default:
		return ExitOK
	}
}

// Print renders the end-of-run report.
func (s *Summary) Print() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ui.PrintSection("Summary")
	if s.Source != "" {
		ui.PrintKeyValue("Source", s.Source, "")
	}
	ui.PrintKeyValue("Links", fmt.Sprintf("%d", s.Total), "")
	if s.AlreadyDone > 0 {
		ui.PrintKeyValue("Already done", fmt.Sprintf("%d", s.AlreadyDone), ui.ColorCyan)
	}
	ui.PrintKeyValue("Downloaded", fmt.Sprintf("%d", s.Downloaded), ui.ColorGreen)
	if s.Failed > 0 {
		ui.PrintKeyValue("Failed", fmt.Sprintf("%d", s.Failed), ui.ColorRed)
	}
	if s.Cancelled > 0 {
		ui.PrintKeyValue("Cancelled", fmt.Sprintf("%d", s.Cancelled), ui.ColorYellow)
	}
	ui.PrintKeyValue("Files", fmt.Sprintf("%d (%s)", s.Files, humanize.Bytes(uint64(s.Bytes))), "")
	ui.PrintKeyValue("Elapsed", s.Elapsed.Round(time.Second).String(), "")
	if warnings := ui.RunWarningCount.Load(); warnings > 0 {
		ui.PrintKeyValue("Warnings", fmt.Sprintf("%d", warnings), ui.ColorYellow)
	}
	if len(s.FailedLinks) > 0 {
		fmt.Println()
		ui.PrintError("Failed links:")
		ui.PrintList(s.FailedLinks, ui.ColorRed)
	}
}
