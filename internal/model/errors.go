package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for download operations.
var (
	// ErrBackendMissing is returned when the external tool cannot be found or installed.
	ErrBackendMissing = errors.New("download backend is not installed")
	// ErrNoLinks is returned when a link file holds nothing to download.
	ErrNoLinks = errors.New("no URLs found in link file")
	// ErrNothingDownloaded is wrapped in a BackendError when a backend exits
	// cleanly after reporting errors and produced nothing.
	ErrNothingDownloaded = errors.New("backend finished without producing files")
	// ErrCancelled is returned when the user interrupts a run.
	ErrCancelled = errors.New("download cancelled")
)

// ErrorClass groups backend failures by how the retry loop should treat them.
type ErrorClass string

const (
	ClassMetadata    ErrorClass = "metadata"
	ClassNoResults   ErrorClass = "no-results"
	ClassUnavailable ErrorClass = "unavailable"
	ClassProvider    ErrorClass = "provider"
	ClassRateLimited ErrorClass = "rate-limited"
	ClassUnknown     ErrorClass = "unknown"
)

// Retryable reports whether another attempt can succeed.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ClassMetadata, ClassNoResults, ClassUnavailable:
		return false
	}
	return true
}

// Describe returns the short human label used in logs.
func (c ErrorClass) Describe() string {
	switch c {
	case ClassMetadata:
		return "Metadata TypeError (NoneType)"
	case ClassNoResults:
		return "No results found"
	case ClassUnavailable:
		return "Resource unavailable"
	case ClassProvider:
		return "Audio provider error"
	case ClassRateLimited:
		return "Rate limited"
	default:
		return "Download failed"
	}
}

// BackendError is a failed backend invocation.
type BackendError struct {
	Backend  Backend
	Class    ErrorClass
	ExitCode int
	Stderr   string
	Err      error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Backend, e.Class.Describe())
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err warrants another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrBackendMissing) {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Class.Retryable()
	}
	return true
}
