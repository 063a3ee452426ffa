package journal

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the diagnostic logger. Debug output is enabled with
// verbose; format is one of "text", "json" or "logfmt" (default).
func SetupLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var formatter log.Formatter
	switch format {
	case "json":
		formatter = log.JSONFormatter
	case "text":
		formatter = log.TextFormatter
	default:
		formatter = log.LogfmtFormatter
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportCaller:    verbose,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "tunegrab",
		Formatter:       formatter,
		Level:           level,
	})
	return slog.New(handler)
}
