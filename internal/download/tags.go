package download

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackInfo is the subset of embedded tags shown after a download.
type TrackInfo struct {
	Artist string
	Title  string
	Album  string
	Track  int
}

// Label renders "Artist - Title", or the file name when tags are missing.
func (t TrackInfo) Label() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return ""
	}
}

// ReadTrackInfo reads the tags embedded in an audio file. Files without
// readable tags yield a TrackInfo titled after the file name.
func ReadTrackInfo(path string) TrackInfo {
	fallback := TrackInfo{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback
	}
	info := TrackInfo{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
	}
	info.Track, _ = m.Track()
	if info.Title == "" {
		info.Title = fallback.Title
	}
	return info
}
