package links

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jmagar/tunegrab/internal/helpers"
)

// Status is the marker appended to a link line after it was processed.
type Status string

const (
	StatusNone       Status = ""
	StatusDownloaded Status = "DOWNLOADED"
	StatusFailed     Status = "FAILED"
)

// ErrLinkFileNotFound is returned when the link file does not exist.
var ErrLinkFileNotFound = errors.New("link file not found")

// commentDelim splits a link line into URL, notes and status.
// A '#' only starts a comment when whitespace precedes it, so URL
// fragments stay intact.
var commentDelim = regexp.MustCompile(`\s+#`)

const lockWait = 5 * time.Second

// Entry is one link line of a ledger.
type Entry struct {
	Index  int
	URL    string
	Note   string
	Status Status
	line   int
}

// Pending reports whether the entry still needs downloading.
func (e Entry) Pending(retryFailed bool) bool {
	switch e.Status {
	case StatusDownloaded:
		return false
	case StatusFailed:
		return retryFailed
	default:
		return true
	}
}

// String renders the entry as a link file line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.URL)
	if e.Note != "" {
		b.WriteString(" # ")
		b.WriteString(e.Note)
	}
	if e.Status != StatusNone {
		b.WriteString(" # ")
		b.WriteString(string(e.Status))
	}
	return b.String()
}

// ParseLine splits a link line. ok is false for blank and comment lines.
func ParseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Entry{}, false
	}

	parts := commentDelim.Split(trimmed, -1)
	entry := Entry{URL: strings.TrimSpace(parts[0])}

	var notes []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			notes = append(notes, p)
		}
	}
	if n := len(notes); n > 0 {
		switch strings.ToUpper(notes[n-1]) {
		case string(StatusDownloaded):
			entry.Status = StatusDownloaded
			notes = notes[:n-1]
		case string(StatusFailed):
			entry.Status = StatusFailed
			notes = notes[:n-1]
		}
	}
	entry.Note = strings.Join(notes, " # ")
	return entry, true
}

// Ledger is a link file whose lines double as a download log.
// Blank lines and comment lines are preserved verbatim.
type Ledger struct {
	mu      sync.Mutex
	path    string
	lines   []string
	entries []Entry
	marked  map[string]Status
	mode    os.FileMode
}

// LoadLedger reads and parses a link file.
func LoadLedger(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLinkFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open link file: %w", err)
	}
	defer f.Close()

	l := &Ledger{path: path, marked: make(map[string]Status), mode: 0644}
	if info, err := f.Stat(); err == nil {
		l.mode = info.Mode().Perm()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if entry, ok := ParseLine(line); ok {
			entry.Index = len(l.entries)
			entry.line = len(l.lines)
			l.entries = append(l.entries, entry)
			line = entry.String()
		}
		l.lines = append(l.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link file: %w", err)
	}
	return l, nil
}

// Path returns the link file location.
func (l *Ledger) Path() string {
	return l.path
}

// Entries returns a copy of every link entry in file order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Pending returns the entries still to process. DOWNLOADED entries are
// never returned; FAILED entries only when retryFailed is set.
func (l *Ledger) Pending(retryFailed bool) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Pending(retryFailed) {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns how many entries carry each status.
func (l *Ledger) Counts() (downloaded, failed, unmarked int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		switch e.Status {
		case StatusDownloaded:
			downloaded++
		case StatusFailed:
			failed++
		default:
			unmarked++
		}
	}
	return downloaded, failed, unmarked
}

// Mark sets the status of entry i, replacing any previous status.
func (l *Ledger) Mark(i int, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("ledger entry %d out of range", i)
	}
	e := &l.entries[i]
	e.Status = status
	l.lines[e.line] = e.String()
	l.marked[helpers.URLKey(e.URL)] = status
	return nil
}

// Save rewrites the link file atomically under an exclusive lock.
// Lines edited or appended on disk since loading are kept; only the
// status of entries marked in this session is overwritten.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, err := AcquireLock(lockPathFor(l.path), lockWait)
	if err != nil {
		return fmt.Errorf("failed to lock link file: %w", err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			slog.Warn("failed to release link file lock", "path", l.path, "error", releaseErr)
		}
	}()

	lines := l.mergeWithDisk()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp link file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp link file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp link file: %w", err)
	}
	_ = os.Chmod(tmpPath, l.mode)
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace link file: %w", err)
	}
	return nil
}

// lockPathFor keeps lock files out of the user's link directory.
func lockPathFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(os.TempDir(), "tunegrab", hex.EncodeToString(sum[:8])+".lock")
}

// mergeWithDisk applies session marks to the current file contents.
// Falls back to the in-memory lines when the file cannot be read.
func (l *Ledger) mergeWithDisk() []string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return l.lines
	}
	text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if text == "" {
		return l.lines
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		entry, ok := ParseLine(line)
		if !ok {
			continue
		}
		if status, marked := l.marked[helpers.URLKey(entry.URL)]; marked {
			entry.Status = status
			lines[i] = entry.String()
		}
	}
	return lines
}
