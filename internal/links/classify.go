package links

import (
	"net/url"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
)

var youtubeHosts = map[string]bool{
	"youtube.com":          true,
	"www.youtube.com":      true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtu.be":             true,
	"youtube-nocookie.com": true,
}

// Classify decides what a link points at and which backend handles it.
// Text that is not a URL is treated as a search query.
func Classify(target string) (model.LinkKind, model.Backend) {
	target = strings.TrimSpace(target)

	if strings.HasPrefix(strings.ToLower(target), "spotify:") {
		parts := strings.Split(target, ":")
		if len(parts) >= 3 {
			return spotifyKind(parts[1]), model.BackendSpotdl
		}
		return model.KindTrack, model.BackendSpotdl
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.KindSearch, model.BackendSpotdl
	}

	host := strings.ToLower(u.Hostname())
	if youtubeHosts[host] {
		if u.Query().Get("list") != "" {
			return model.KindYTPlaylist, model.BackendYtdlp
		}
		if isChannelPath(u.Path) {
			return model.KindChannel, model.BackendYtdlp
		}
		return model.KindVideo, model.BackendYtdlp
	}

	if host == "open.spotify.com" || host == "play.spotify.com" {
		for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
			if seg == "" || strings.HasPrefix(seg, "intl-") {
				continue
			}
			return spotifyKind(seg), model.BackendSpotdl
		}
	}
	return model.KindTrack, model.BackendSpotdl
}

// isChannelPath matches channel pages such as /@handle, /channel/UC...,
// /c/name and /user/name, including their /videos style tabs.
func isChannelPath(p string) bool {
	if strings.HasPrefix(p, "/@") {
		return true
	}
	for _, prefix := range []string{"/channel/", "/c/", "/user/"} {
		if strings.HasPrefix(p, prefix) && len(p) > len(prefix) {
			return true
		}
	}
	return false
}

func spotifyKind(segment string) model.LinkKind {
	switch strings.ToLower(segment) {
	case "playlist":
		return model.KindPlaylist
	case "album":
		return model.KindAlbum
	case "artist":
		return model.KindArtist
	default:
		return model.KindTrack
	}
}

// IsYouTubeURL reports whether target is a link yt-dlp should handle.
func IsYouTubeURL(target string) bool {
	_, backend := Classify(target)
	return backend == model.BackendYtdlp
}

// Template returns the output path template for a link kind, in the
// placeholder syntax of the backend that handles it.
func Template(kind model.LinkKind, backend model.Backend) string {
	if backend == model.BackendYtdlp {
		switch kind {
		case model.KindYTPlaylist:
			return "%(playlist_title)s/%(playlist_index)02d - %(title)s.%(ext)s"
		case model.KindChannel:
			return "Channels/%(channel,uploader)s/%(title)s.%(ext)s"
		}
		return "%(artist,uploader)s - %(title)s.%(ext)s"
	}
	switch kind {
	case model.KindPlaylist:
		return "{playlist}/{title}.{output-ext}"
	case model.KindAlbum, model.KindArtist, model.KindSearch:
		return "{artist}/{album}/{title}.{output-ext}"
	default:
		return "{artist} - {title}.{output-ext}"
	}
}

// AccountTemplate returns the template used for an account operation.
func AccountTemplate(op string) string {
	if op == model.AccountPlaylists {
		return "{playlist}/{title}.{output-ext}"
	}
	return "{artist}/{album}/{title}.{output-ext}"
}

// KindArgs returns backend flags a link kind always needs.
func KindArgs(kind model.LinkKind, backend model.Backend) []string {
	if backend == model.BackendSpotdl && kind == model.KindPlaylist {
		return []string{"--playlist-numbering", "--playlist-retain-track-cover"}
	}
	return nil
}

// NewRequest builds a request for target rooted at outputDir.
func NewRequest(target, outputDir string) model.Request {
	target = strings.TrimSpace(target)
	kind, backend := Classify(target)
	return model.Request{
		Target:         target,
		Kind:           kind,
		Backend:        backend,
		OutputDir:      outputDir,
		OutputTemplate: Template(kind, backend),
		ExtraArgs:      KindArgs(kind, backend),
	}
}

// NewAccountRequest builds a request for a spotdl account operation.
func NewAccountRequest(op, outputDir string) model.Request {
	return model.Request{
		Target:         op,
		Kind:           model.KindAccount,
		Backend:        model.BackendSpotdl,
		OutputDir:      outputDir,
		OutputTemplate: AccountTemplate(op),
		ExtraArgs:      []string{"--user-auth"},
	}
}
