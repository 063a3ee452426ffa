package model

import "time"

// Config holds the user's configuration.
type Config struct {
	OutPath           string   `json:"outPath" yaml:"outPath" validate:"required"`
	StagingPath       string   `json:"stagingPath,omitempty" yaml:"stagingPath,omitempty"`
	LinksFile         string   `json:"linksFile,omitempty" yaml:"linksFile,omitempty"`
	Bitrate           string   `json:"bitrate" yaml:"bitrate" validate:"required,bitrate"`
	Format            string   `json:"format" yaml:"format" validate:"required,oneof=mp3 flac ogg opus m4a wav"`
	MaxRetries        int      `json:"maxRetries" yaml:"maxRetries" validate:"min=1,max=20"`
	RetryDelay        string   `json:"retryDelay" yaml:"retryDelay" validate:"duration"`
	MaxParallel       int      `json:"maxParallel" yaml:"maxParallel" validate:"min=1,max=8"`
	DownloadTimeout   string   `json:"downloadTimeout,omitempty" yaml:"downloadTimeout,omitempty" validate:"omitempty,duration"`
	SpotdlBin         string   `json:"spotdlBin,omitempty" yaml:"spotdlBin,omitempty"`
	PythonBin         string   `json:"pythonBin,omitempty" yaml:"pythonBin,omitempty"`
	AutoInstall       bool     `json:"autoInstall" yaml:"autoInstall"`
	UseFfmpegEnvVar   bool     `json:"useFfmpegEnvVar" yaml:"useFfmpegEnvVar"`
	FfmpegNameStr     string   `json:"ffmpegNameStr,omitempty" yaml:"ffmpegNameStr,omitempty"`
	YtdlpBin          string   `json:"ytdlpBin,omitempty" yaml:"ytdlpBin,omitempty"`
	ZipAlbums         bool     `json:"zipAlbums,omitempty" yaml:"zipAlbums,omitempty"`
	WritePlaylistFile bool     `json:"writePlaylistFile" yaml:"writePlaylistFile"`
	LogDir            string   `json:"logDir,omitempty" yaml:"logDir,omitempty"`
	CookieFile        string   `json:"cookieFile,omitempty" yaml:"cookieFile,omitempty"`
	Lyrics            string   `json:"lyrics,omitempty" yaml:"lyrics,omitempty" validate:"omitempty,oneof=genius musixmatch azlyrics synced"`
	ExtraArgs         []string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
	RcloneEnabled     bool     `json:"rcloneEnabled,omitempty" yaml:"rcloneEnabled,omitempty"`
	RcloneRemote      string   `json:"rcloneRemote,omitempty" yaml:"rcloneRemote,omitempty" validate:"required_if=RcloneEnabled true"`
	RclonePath        string   `json:"rclonePath,omitempty" yaml:"rclonePath,omitempty"`
	RcloneTransfers   int      `json:"rcloneTransfers,omitempty" yaml:"rcloneTransfers,omitempty" validate:"omitempty,min=1,max=64"`
	DeleteAfterUpload bool     `json:"deleteAfterUpload,omitempty" yaml:"deleteAfterUpload,omitempty"`
	GotifyURL         string   `json:"gotifyUrl,omitempty" yaml:"gotifyUrl,omitempty" validate:"omitempty,url"`
	GotifyToken       string   `json:"gotifyToken,omitempty" yaml:"gotifyToken,omitempty"`
	WatchDebounce     string   `json:"watchDebounce,omitempty" yaml:"watchDebounce,omitempty" validate:"omitempty,duration"`

	// Resolved at load time, never persisted.
	Urls               []string      `json:"-" yaml:"-"`
	RetryDelayDur      time.Duration `json:"-" yaml:"-"`
	DownloadTimeoutDur time.Duration `json:"-" yaml:"-"`
	WatchDebounceDur   time.Duration `json:"-" yaml:"-"`
	RetryFailed        bool          `json:"-" yaml:"-"`
	Verbose            bool          `json:"-" yaml:"-"`
}

// ArgsDescriptionFunc is set by package main to provide colored help text.
// If nil, Description() returns an empty string (go-arg will use default help).
var ArgsDescriptionFunc func() string

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Urls        []string `arg:"positional" help:"Links, search queries, link files (.txt/.m3u/.m3u8) or a command."`
	ConfigPath  string   `arg:"-c,--config" help:"Config file to load instead of the default search paths."`
	OutPath     string   `arg:"-o,--out" help:"Where to download to. Path will be made if it doesn't already exist."`
	Bitrate     string   `arg:"-b,--bitrate" help:"Audio bitrate: auto, disable, 8k ... 320k."`
	Format      string   `arg:"-f,--format" help:"Audio format: mp3, flac, ogg, opus, m4a, wav."`
	Retries     int      `arg:"-r,--retries" default:"-1" help:"Attempts per link."`
	RetryDelay  string   `arg:"--retry-delay" help:"Delay between attempts, e.g. 20s."`
	Parallel    int      `arg:"-j,--parallel" default:"-1" help:"Links processed concurrently in batch mode."`
	Staging     string   `arg:"--staging" help:"Download into this directory first, then move into the output path."`
	Lyrics      string   `arg:"--lyrics" help:"Lyrics provider: genius, musixmatch, azlyrics, synced."`
	Zip         bool     `arg:"--zip" help:"Zip album folders after download."`
	NoInstall   bool     `arg:"--no-install" help:"Never install missing backends."`
	SkipFailed  bool     `arg:"--skip-failed" help:"Do not retry links already marked FAILED in the link file."`
	Verbose     bool     `arg:"-v,--verbose" help:"Show backend output and debug logs."`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	if ArgsDescriptionFunc != nil {
		return ArgsDescriptionFunc()
	}
	return ""
}

// LinkKind describes what a link points at.
type LinkKind string

const (
	KindTrack      LinkKind = "track"
	KindAlbum      LinkKind = "album"
	KindPlaylist   LinkKind = "playlist"
	KindArtist     LinkKind = "artist"
	KindSearch     LinkKind = "search"
	KindVideo      LinkKind = "video"
	KindYTPlaylist LinkKind = "yt-playlist"
	KindChannel    LinkKind = "yt-channel"
	KindAccount    LinkKind = "account"
)

// IsCollection reports whether the kind expands to more than one track.
func (k LinkKind) IsCollection() bool {
	switch k {
	case KindAlbum, KindPlaylist, KindArtist, KindYTPlaylist, KindChannel, KindAccount:
		return true
	}
	return false
}

// Backend names the external tool that handles a request.
type Backend string

const (
	BackendSpotdl Backend = "spotdl"
	BackendYtdlp  Backend = "ytdlp"
)

// Account operations understood by spotdl with --user-auth.
const (
	AccountSaved     = "saved"
	AccountPlaylists = "all-user-playlists"
	AccountAlbums    = "all-user-saved-albums"
)

// Request is one unit of work handed to a backend.
type Request struct {
	Target         string
	Kind           LinkKind
	Backend        Backend
	OutputDir      string
	OutputTemplate string
	ExtraArgs      []string
}

// RunResult is what a backend reports for one attempt.
type RunResult struct {
	ExitCode   int
	Stderr     string
	Found      int
	Downloaded int
	Skipped    int
	Title      string
}

// Outcome is the final result of fetching one request, across all attempts.
type Outcome struct {
	Request  Request
	Attempts int
	Files    []string
	Bytes    int64
	Skipped  int
	Err      error
	Duration time.Duration
}

// OK reports whether the request finished successfully.
func (o *Outcome) OK() bool {
	return o != nil && o.Err == nil
}

// BatchProgressState tracks progress across the links of a batch operation.
type BatchProgressState struct {
	CurrentItem  int
	TotalItems   int
	Complete     int
	Failed       int
	Skipped      int
	StartTime    time.Time
	CurrentTitle string
}

// Validate ensures batch progress state fields are consistent and within valid bounds.
func (b *BatchProgressState) Validate() {
	if b == nil {
		return
	}
	if b.CurrentItem > b.TotalItems {
		b.CurrentItem = b.TotalItems
	}
	total := b.Complete + b.Failed + b.Skipped
	if total > b.TotalItems {
		if b.Complete > b.TotalItems {
			b.Complete = b.TotalItems
			b.Failed = 0
			b.Skipped = 0
		} else if b.Complete+b.Failed > b.TotalItems {
			b.Failed = b.TotalItems - b.Complete
			b.Skipped = 0
		} else {
			b.Skipped = b.TotalItems - b.Complete - b.Failed
		}
	}
	if b.CurrentItem < 0 {
		b.CurrentItem = 0
	}
	if b.Complete < 0 {
		b.Complete = 0
	}
	if b.Failed < 0 {
		b.Failed = 0
	}
	if b.Skipped < 0 {
		b.Skipped = 0
	}
}
