package spotdl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// EventType names a progress line spotdl prints.
type EventType int

const (
	EventFound EventType = iota + 1
	EventDownloaded
	EventSkipped
	EventLookupFailed
)

// Event is one parsed progress line.
type Event struct {
	Type  EventType
	Count int
	Title string
	URL   string
}

var (
	foundPattern      = regexp.MustCompile(`^Found (\d+) songs? in (.+)$`)
	downloadedPattern = regexp.MustCompile(`^Downloaded "(.+)": (\S+)`)
	skippingPattern   = regexp.MustCompile(`^Skipping (.+?)(?: \(.*\))*$`)
	lookupPattern     = regexp.MustCompile(`LookupError: No results found for song: (.+)$`)
)

// ParseLine recognises spotdl progress output.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(ui.StripAnsiCodes(line))
	if line == "" {
		return Event{}, false
	}
	if m := foundPattern.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Event{}, false
		}
		return Event{Type: EventFound, Count: n, Title: strings.TrimSpace(m[2])}, true
	}
	if m := downloadedPattern.FindStringSubmatch(line); m != nil {
		return Event{Type: EventDownloaded, Count: 1, Title: m[1], URL: m[2]}, true
	}
	if m := skippingPattern.FindStringSubmatch(line); m != nil {
		return Event{Type: EventSkipped, Count: 1, Title: strings.TrimSpace(m[1])}, true
	}
	if m := lookupPattern.FindStringSubmatch(line); m != nil {
		return Event{Type: EventLookupFailed, Count: 1, Title: strings.TrimSpace(m[1])}, true
	}
	return Event{}, false
}

// Failure markers spotdl prints on stderr.
const (
	MetadataTypeError = "TypeError: expected string or bytes-like object, got 'NoneType'"
	NoResultsError    = "LookupError: No results found for song:"
	AudioProviderErr  = "AudioProviderError"
)

// ClassifyOutput maps spotdl error output to an error class.
func ClassifyOutput(output string) model.ErrorClass {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(output, MetadataTypeError):
		return model.ClassMetadata
	case strings.Contains(output, NoResultsError):
		return model.ClassNoResults
	case strings.Contains(output, AudioProviderErr):
		return model.ClassProvider
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "ratelimit"),
		strings.Contains(lower, "429"):
		return model.ClassRateLimited
	default:
		return model.ClassUnknown
	}
}
