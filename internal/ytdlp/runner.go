// Package ytdlp downloads YouTube and YouTube Music links as audio through
// yt-dlp.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"

	"github.com/jmagar/tunegrab/internal/model"
)

// Options are the settings shared by every yt-dlp invocation.
type Options struct {
	Bin        string
	Bitrate    string
	Format     string
	FfmpegPath string
	CookieFile string

	// ArchiveFile records channel uploads already fetched so later runs
	// only pick up new ones.
	ArchiveFile string
}

// OptionsFromConfig derives runner options from the loaded config.
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		Bin:        strings.TrimSpace(cfg.YtdlpBin),
		Bitrate:    cfg.Bitrate,
		Format:     cfg.Format,
		FfmpegPath: cfg.FfmpegNameStr,
		CookieFile: cfg.CookieFile,

		ArchiveFile: filepath.Join(cfg.LogDir, model.ChannelArchiveFile),
	}
}

// ProgressFunc receives download progress for the current item.
type ProgressFunc func(percent int, speed, downloaded, total string)

// Runner executes yt-dlp once per request.
type Runner struct {
	Opts       Options
	OnProgress ProgressFunc
}

// NewRunner returns a runner for opts.
func NewRunner(opts Options) *Runner {
	return &Runner{Opts: opts}
}

// Name implements the download backend interface.
func (r *Runner) Name() model.Backend {
	return model.BackendYtdlp
}

// AudioQuality maps a bitrate setting to yt-dlp's --audio-quality value.
// "auto" and "disable" select the best available quality.
func AudioQuality(bitrate string) string {
	b := strings.ToLower(strings.TrimSpace(bitrate))
	switch b {
	case "", "auto", "disable":
		return "0"
	}
	return strings.ToUpper(b)
}

// Command builds the yt-dlp command for req.
func (r *Runner) Command(req model.Request) *ytdlp.Command {
	format := r.Opts.Format
	if format == "" {
		format = model.DefaultFormat
	}
	output := req.OutputTemplate
	if req.OutputDir != "" {
		output = filepath.Join(req.OutputDir, req.OutputTemplate)
	}

	dl := ytdlp.New().
		ExtractAudio().
		AudioFormat(format).
		AudioQuality(AudioQuality(r.Opts.Bitrate)).
		EmbedMetadata().
		EmbedThumbnail().
		NoOverwrites().
		Output(output)

	switch req.Kind {
	case model.KindYTPlaylist:
		dl = dl.YesPlaylist()
	case model.KindChannel:
		dl = dl.YesPlaylist()
		if r.Opts.ArchiveFile != "" {
			dl = dl.DownloadArchive(r.Opts.ArchiveFile)
		}
	default:
		dl = dl.NoPlaylist()
	}
	if r.Opts.Bin != "" {
		dl = dl.SetExecutable(r.Opts.Bin)
	}
	if r.Opts.FfmpegPath != "" {
		dl = dl.FFmpegLocation(r.Opts.FfmpegPath)
	}
	if r.Opts.CookieFile != "" {
		dl = dl.Cookies(r.Opts.CookieFile)
	}
	return dl
}

// Run downloads req and waits for yt-dlp to exit.
func (r *Runner) Run(ctx context.Context, req model.Request) (*model.RunResult, error) {
	dl := r.Command(req)
	result := &model.RunResult{}

	var (
		mu       sync.Mutex
		finished = make(map[string]bool)
	)
	dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()

		title := ""
		if update.Info != nil && update.Info.Title != nil {
			title = *update.Info.Title
		}
		if title != "" && result.Title == "" {
			result.Title = title
		}

		percent := 0
		if update.TotalBytes > 0 {
			percent = int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
			if percent >= 100 && title != "" && !finished[title] {
				finished[title] = true
				result.Downloaded++
			}
		}
		if r.OnProgress != nil {
			speed := "0 B"
			if !update.Started.IsZero() {
				if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
					speed = humanize.Bytes(uint64(float64(update.DownloadedBytes) / elapsed))
				}
			}
			r.OnProgress(percent, speed+"/s", humanize.Bytes(uint64(update.DownloadedBytes)), humanize.Bytes(uint64(update.TotalBytes)))
		}
	})

	slog.Debug("running yt-dlp", "url", req.Target, "kind", req.Kind)
	res, err := dl.Run(ctx, req.Target)
	if res != nil {
		result.ExitCode = res.ExitCode
		result.Stderr = tail(res.Stderr, 60)
	}
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, &model.BackendError{
				Backend: model.BackendYtdlp,
				Class:   model.ClassUnknown,
				Stderr:  result.Stderr,
				Err:     fmt.Errorf("attempt timed out: %w", ctx.Err()),
			}
		}
		return result, fmt.Errorf("%w: %w", model.ErrCancelled, ctx.Err())
	}
	if err != nil {
		return result, &model.BackendError{
			Backend:  model.BackendYtdlp,
			Class:    ClassifyOutput(result.Stderr + "\n" + err.Error()),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}
	if res != nil {
		if infos, infoErr := res.GetExtractedInfo(); infoErr == nil {
			result.Found = len(infos)
		}
	}
	return result, nil
}

// ClassifyOutput maps yt-dlp error output to an error class.
func ClassifyOutput(output string) model.ErrorClass {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "private video"),
		strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "this video is not available"),
		strings.Contains(lower, "sign in to confirm"),
		strings.Contains(lower, "members-only"):
		return model.ClassUnavailable
	case strings.Contains(lower, "http error 429"), strings.Contains(lower, "too many requests"):
		return model.ClassRateLimited
	default:
		return model.ClassUnknown
	}
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
