// Package spotdl drives the spotdl command-line tool for Spotify links,
// search queries and account downloads.
package spotdl

import (
	"path/filepath"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
)

// Options are the settings shared by every spotdl invocation.
type Options struct {
	Bin        string
	Bitrate    string
	Format     string
	FfmpegPath string
	CookieFile string
	Lyrics     string
	ExtraArgs  []string
}

// OptionsFromConfig derives runner options from the loaded config.
func OptionsFromConfig(cfg *model.Config) Options {
	bin := strings.TrimSpace(cfg.SpotdlBin)
	if bin == "" {
		bin = model.DefaultSpotdlBin
	}
	return Options{
		Bin:        bin,
		Bitrate:    cfg.Bitrate,
		Format:     cfg.Format,
		FfmpegPath: cfg.FfmpegNameStr,
		CookieFile: cfg.CookieFile,
		Lyrics:     cfg.Lyrics,
		ExtraArgs:  cfg.ExtraArgs,
	}
}

// BuildArgs assembles the spotdl argument list for one request.
func BuildArgs(req model.Request, opts Options) []string {
	bitrate := opts.Bitrate
	if bitrate == "" {
		bitrate = model.DefaultBitrate
	}
	format := opts.Format
	if format == "" {
		format = model.DefaultFormat
	}

	output := req.OutputTemplate
	if req.OutputDir != "" {
		output = filepath.Join(req.OutputDir, req.OutputTemplate)
	}

	args := []string{
		"download", req.Target,
		"--output", output,
		"--overwrite", "skip",
		"--bitrate", strings.ToLower(bitrate),
		"--format", format,
		"--simple-tui",
	}
	if opts.FfmpegPath != "" {
		args = append(args, "--ffmpeg", opts.FfmpegPath)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookie-file", opts.CookieFile)
	}
	if opts.Lyrics != "" {
		args = append(args, "--lyrics", opts.Lyrics)
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, opts.ExtraArgs...)
	return args
}
