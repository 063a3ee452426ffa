package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmagar/tunegrab/internal/model"
)

// Journal file names inside the log directory.
const (
	SuccessFile = "success.log"
	FailedFile  = "failed.log"
	ErrorFile   = "error.log"
)

// Record is one JSON line in a journal file.
type Record struct {
	Timestamp  string   `json:"ts"`
	Session    string   `json:"session"`
	Event      string   `json:"event"`
	URL        string   `json:"url"`
	Kind       string   `json:"kind,omitempty"`
	Backend    string   `json:"backend,omitempty"`
	Attempt    int      `json:"attempt,omitempty"`
	Files      []string `json:"files,omitempty"`
	Class      string   `json:"class,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Journal appends download outcomes to success, failed and error logs.
// A nil *Journal is valid and discards everything. Methods are safe for
// concurrent use; write failures are ignored.
type Journal struct {
	mu      sync.Mutex
	session string
	dir     string
	files   map[string]*os.File
}

// Open creates logDir (0700) and opens the three journal files for append.
func Open(logDir string) (*Journal, error) {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("journal: mkdir %s: %w", logDir, err)
	}
	j := &Journal{
		session: uuid.NewString(),
		dir:     logDir,
		files:   make(map[string]*os.File, 3),
	}
	for _, name := range []string{SuccessFile, FailedFile, ErrorFile} {
		path := filepath.Join(logDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			j.Close()
			return nil, fmt.Errorf("journal: open %s: %w", path, err)
		}
		j.files[name] = f
	}
	return j, nil
}

// Session returns the id stamped on every record of this run.
func (j *Journal) Session() string {
	if j == nil {
		return ""
	}
	return j.session
}

// Dir returns the log directory.
func (j *Journal) Dir() string {
	if j == nil {
		return ""
	}
	return j.dir
}

func (j *Journal) write(name string, r Record) {
	if j == nil {
		return
	}
	r.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	r.Session = j.session
	j.mu.Lock()
	defer j.mu.Unlock()
	f := j.files[name]
	if f == nil {
		return
	}
	_ = json.NewEncoder(f).Encode(r)
}

func requestRecord(event string, req model.Request) Record {
	return Record{
		Event:   event,
		URL:     req.Target,
		Kind:    string(req.Kind),
		Backend: string(req.Backend),
	}
}

// Downloaded records a link that finished successfully.
func (j *Journal) Downloaded(out *model.Outcome) {
	r := requestRecord("downloaded", out.Request)
	r.Attempt = out.Attempts
	r.Files = out.Files
	r.DurationMS = out.Duration.Milliseconds()
	j.write(SuccessFile, r)
}

// Failed records a link that exhausted its attempts or hit a permanent error.
func (j *Journal) Failed(out *model.Outcome) {
	r := requestRecord("failed", out.Request)
	r.Attempt = out.Attempts
	r.DurationMS = out.Duration.Milliseconds()
	if out.Err != nil {
		r.Error = out.Err.Error()
		r.Class = string(classOf(out.Err))
	}
	j.write(FailedFile, r)
}

// AttemptError records one failed attempt, retried or not.
func (j *Journal) AttemptError(req model.Request, attempt int, err error) {
	r := requestRecord("attempt_failed", req)
	r.Attempt = attempt
	if err != nil {
		r.Error = err.Error()
		r.Class = string(classOf(err))
	}
	j.write(ErrorFile, r)
}

// Event records a free-form error event such as a failed upload.
func (j *Journal) Event(event, target string, err error) {
	r := Record{Event: event, URL: target}
	if err != nil {
		r.Error = err.Error()
	}
	j.write(ErrorFile, r)
}

// Close flushes and closes the journal files.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var firstErr error
	for name, f := range j.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(j.files, name)
	}
	return firstErr
}

func classOf(err error) model.ErrorClass {
	var be *model.BackendError
	if errors.As(err, &be) {
		return be.Class
	}
	if errors.Is(err, model.ErrCancelled) {
		return "cancelled"
	}
	return model.ClassUnknown
}
