package rclone

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunegrab/internal/ui"
)

var (
	transferredPattern = regexp.MustCompile(`(?i)\btransferred:\s*(.+)$`)
	sizePairPattern    = regexp.MustCompile(`^\s*([^,]+?)\s*/\s*([^,]+?)(?:\s*,|$)`)
	percentPattern     = regexp.MustCompile(`(\d{1,3})\s*%`)
	speedPattern       = regexp.MustCompile(`(?:^|,)\s*@?\s*([^,]*?/s)\s*(?:,|$)`)
)

// Progress is one parsed rclone stats line.
type Progress struct {
	Percent int
	Speed   string
	Done    string
	Total   string
}

// ParseRcloneProgressLine parses a --stats-one-line "Transferred:" line.
// Log prefixes and compact spacing are accepted.
func ParseRcloneProgressLine(line string) (Progress, bool) {
	line = strings.TrimSpace(ui.StripAnsiCodes(line))
	m := transferredPattern.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	segment := strings.TrimSpace(m[1])
	pair := sizePairPattern.FindStringSubmatch(segment)
	if pair == nil {
		return Progress{}, false
	}

	p := Progress{
		Done:  strings.Join(strings.Fields(pair[1]), " "),
		Total: strings.Join(strings.Fields(pair[2]), " "),
		Speed: "0 B",
	}
	if p.Done == "" || p.Total == "" {
		return Progress{}, false
	}

	p.Percent = -1
	if pm := percentPattern.FindStringSubmatch(segment); pm != nil {
		if n, err := strconv.Atoi(pm[1]); err == nil {
			p.Percent = n
		}
	}
	if p.Percent < 0 {
		if n, ok := ComputeProgressPercent(p.Done, p.Total); ok {
			p.Percent = n
		} else if strings.EqualFold(p.Done, p.Total) {
			p.Percent = 100
		} else {
			p.Percent = 0
		}
	}

	if sm := speedPattern.FindStringSubmatch(segment); sm != nil {
		if speed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sm[1]), "@")); speed != "" {
			p.Speed = speed
		}
	}
	return p, true
}

// ComputeProgressPercent derives a percentage from two humanized sizes.
func ComputeProgressPercent(done, total string) (int, bool) {
	d, errDone := humanize.ParseBytes(strings.ReplaceAll(done, " ", ""))
	t, errTotal := humanize.ParseBytes(strings.ReplaceAll(total, " ", ""))
	if errDone != nil || errTotal != nil || t == 0 {
		return 0, false
	}
	return max(0, min(int(float64(d)/float64(t)*100), 100)), true
}

// scanStatsLines splits on \n and \r, since rclone redraws its stats line
// with carriage returns.
func scanStatsLines(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimSpace(data[:i]), nil
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}

// RunRcloneWithProgress runs cmd, passing stats lines to onProgress (or
// the terminal progress bar when nil). Other output is attached to the
// returned error.
func RunRcloneWithProgress(cmd *exec.Cmd, onProgress func(Progress)) error {
	if onProgress == nil {
		onProgress = func(p Progress) { ui.PrintUploadProgress(p.Percent, p.Speed, p.Done, p.Total) }
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	var (
		mu          sync.Mutex
		diagnostics strings.Builder
		wg          sync.WaitGroup
	)
	consume := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Split(scanStatsLines)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			mu.Lock()
			if p, ok := ParseRcloneProgressLine(line); ok {
				onProgress(p)
			} else {
				diagnostics.WriteString(line + "\n")
			}
			mu.Unlock()
		}
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	onProgress(Progress{Speed: "0 B", Done: "0", Total: "..."})
	wg.Add(2)
	go consume(stdout)
	go consume(stderr)
	// Pipes must be drained before Wait.
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if diag := strings.TrimSpace(diagnostics.String()); diag != "" {
			return fmt.Errorf("%w\n%s", err, diag)
		}
		return err
	}
	return nil
}
