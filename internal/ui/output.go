package ui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jmagar/tunegrab/internal/model"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
// Batch workers print concurrently, so both are atomic.
var (
	RunErrorCount   atomic.Int64
	RunWarningCount atomic.Int64
)

func printLine(color, symbol, msg string) {
	closeProgress()
	fmt.Printf("%s%s%s %s%s\n", color, symbol, ColorReset, msg, ColorReset)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) { printLine(ColorGreen, SymbolCheck, msg) }

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount.Add(1)
	printLine(ColorRed, SymbolCross, msg)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) { printLine(ColorBlue, SymbolInfo, msg) }

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount.Add(1)
	printLine(ColorYellow, SymbolWarning, msg)
}

// PrintDownload announces a download attempt.
func PrintDownload(msg string) { printLine(ColorCyan, SymbolDownload, msg) }

// PrintUpload announces an upload.
func PrintUpload(msg string) { printLine(ColorPurple, SymbolUpload, msg) }

// PrintMusic reports a finished track.
func PrintMusic(msg string) { printLine(ColorGreen, SymbolMusic, msg) }

// ResetRunCounters zeroes the error and warning counters.
func ResetRunCounters() {
	RunErrorCount.Store(0)
	RunWarningCount.Store(0)
}

// GetKindIndicator returns the emoji symbol for a link kind.
func GetKindIndicator(kind model.LinkKind) string {
	switch kind {
	case model.KindTrack, model.KindVideo:
		return SymbolAudio
	case model.KindAlbum:
		return SymbolAlbum
	case model.KindPlaylist, model.KindYTPlaylist, model.KindAccount:
		return SymbolPlaylist
	case model.KindArtist, model.KindChannel:
		return SymbolArtist
	case model.KindSearch:
		return SymbolSearch
	default:
		return ""
	}
}

// DescribeBitrate returns a human-readable bitrate description.
func DescribeBitrate(bitrate string) string {
	switch strings.ToLower(bitrate) {
	case "auto":
		return "Auto (source bitrate)"
	case "disable":
		return "Disabled (no re-encode)"
	case "":
		return "Default (320k)"
	default:
		return strings.ToLower(bitrate) + "bps"
	}
}

// DescribeBackend returns a human-readable backend name.
func DescribeBackend(b model.Backend) string {
	switch b {
	case model.BackendSpotdl:
		return "spotDL (Spotify)"
	case model.BackendYtdlp:
		return "yt-dlp (YouTube)"
	default:
		return string(b)
	}
}

// DescribeRclone returns a human-readable upload status.
func DescribeRclone(cfg *model.Config) string {
	if !cfg.RcloneEnabled {
		return "Disabled"
	}
	if strings.TrimSpace(cfg.RcloneRemote) == "" {
		return "Enabled (remote not configured)"
	}
	return fmt.Sprintf("Enabled (%s:%s)", cfg.RcloneRemote, cfg.RclonePath)
}
