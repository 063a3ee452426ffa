package model

import "time"

// Defaults applied when the config leaves a field empty.
const (
	DefaultOutPath       = "Albums"
	DefaultLinksFile     = "links/spotify_links.txt"
	DefaultBitrate       = "320k"
	DefaultFormat        = "mp3"
	DefaultMaxRetries    = 5
	DefaultRetryDelay    = 20 * time.Second
	DefaultMaxParallel   = 1
	DefaultSpotdlBin     = "spotdl"
	DefaultLogDir        = "log"
	DefaultWatchDebounce = 2 * time.Second
	DefaultRcloneXfers   = 4
	DefaultLyrics        = "genius"
	ChannelArchiveFile   = "downloaded_channels.txt"
)

// ValidBitrates lists the bitrates spotdl accepts.
var ValidBitrates = []string{
	"auto", "disable", "8k", "16k", "24k", "32k", "40k", "48k", "64k",
	"80k", "96k", "112k", "128k", "160k", "192k", "224k", "256k", "320k",
}

// ValidFormats lists the output formats spotdl and yt-dlp both produce.
var ValidFormats = []string{"mp3", "flac", "ogg", "opus", "m4a", "wav"}

// ValidLyricsProviders lists the lyrics sources spotdl can query.
var ValidLyricsProviders = []string{"genius", "musixmatch", "azlyrics", "synced"}

// AudioExtensions are file extensions counted as downloaded tracks.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wav":  true,
}
