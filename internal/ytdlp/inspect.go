package ytdlp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	ytget "github.com/ytget/ytdlp/v2"
)

// VideoURLTemplate builds a watch URL from a video id.
const VideoURLTemplate = "https://www.youtube.com/watch?v=%s"

// PlaylistItem is one entry of a YouTube playlist.
type PlaylistItem struct {
	ID    string
	Title string
	URL   string
}

// PlaylistID extracts the list= parameter of a playlist link.
func PlaylistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}

// InspectPlaylist lists a playlist's videos without downloading them.
func InspectPlaylist(ctx context.Context, rawURL string, timeout time.Duration) ([]PlaylistItem, error) {
	id := PlaylistID(rawURL)
	if id == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", rawURL)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	items, err := ytget.New().GetPlaylistItemsAll(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		out = append(out, PlaylistItem{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(VideoURLTemplate, it.VideoID),
		})
	}
	return out, nil
}
