package download

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grafov/m3u8"

	"github.com/jmagar/tunegrab/internal/helpers"
)

// WritePlaylist writes an extended M3U file listing tracks relative to
// dir. Existing entries are replaced.
func WritePlaylist(dir, name string, tracks []string) (string, error) {
	if len(tracks) == 0 {
		return "", nil
	}
	pl, err := m3u8.NewMediaPlaylist(0, uint(len(tracks)))
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	pl.DurationAsInt(true)
	for _, track := range tracks {
		uri, err := filepath.Rel(dir, track)
		if err != nil {
			uri = track
		}
		if err := pl.Append(filepath.ToSlash(uri), -1, ReadTrackInfo(track).Label()); err != nil {
			return "", fmt.Errorf("failed to add %s to playlist: %w", track, err)
		}
	}
	pl.Close()

	path := filepath.Join(dir, helpers.Sanitise(name)+".m3u8")
	if err := os.WriteFile(path, pl.Encode().Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist: %w", err)
	}
	return path, nil
}
