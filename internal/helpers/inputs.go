package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/jmagar/tunegrab/internal/ui"
)

// ErrReadInput is returned when a playlist file cannot be read.
var ErrReadInput = errors.New("failed to read input file")

// ReportErr prints msg and err for the user and records the failure in
// the debug log.
func ReportErr(msg string, err error) {
	if err == nil {
		return
	}
	slog.Debug(msg, "error", err)
	ui.PrintError(fmt.Sprintf("%s\n%v", msg, err))
}

// IsLinkFile reports whether arg names a link file (.txt).
func IsLinkFile(arg string) bool {
	return strings.EqualFold(filepath.Ext(arg), ".txt")
}

// IsPlaylistFile reports whether arg names an .m3u or .m3u8 playlist.
func IsPlaylistFile(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".m3u", ".m3u8":
		return true
	}
	return false
}

// ReadPlaylistLinks returns the entry URIs of an .m3u/.m3u8 playlist.
// Files the m3u8 decoder rejects, or that yield no entries, are read as
// plain lists where lines starting with # are skipped.
func ReadPlaylistLinks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrReadInput, path, err)
	}

	var uris []string
	if playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(string(data)), false); err == nil {
		switch listType {
		case m3u8.MEDIA:
			for _, seg := range playlist.(*m3u8.MediaPlaylist).Segments {
				if seg != nil {
					uris = appendNonEmpty(uris, seg.URI)
				}
			}
		case m3u8.MASTER:
			for _, v := range playlist.(*m3u8.MasterPlaylist).Variants {
				if v != nil {
					uris = appendNonEmpty(uris, v.URI)
				}
			}
		}
	}
	if len(uris) > 0 {
		return uris, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); !strings.HasPrefix(line, "#") {
			uris = appendNonEmpty(uris, line)
		}
	}
	return uris, scanner.Err()
}

func appendNonEmpty(list []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(list, s)
	}
	return list
}

// URLKey returns the identity of a target for deduplication: the scheme
// and host of a URL are case-insensitive, its path and query are not.
// Anything that is not an absolute URL is returned unchanged.
func URLKey(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return target
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// ProcessUrls expands playlist files into their entries, trims trailing
// slashes from URLs and drops duplicates by URLKey. Link files are
// passed through untouched so callers can treat them as ledgers.
func ProcessUrls(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		key := URLKey(s)
		if !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		switch {
		case arg == "":
		case IsPlaylistFile(arg):
			entries, err := ReadPlaylistLinks(arg)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				add(strings.TrimSuffix(e, "/"))
			}
		case IsLinkFile(arg):
			add(arg)
		default:
			add(strings.TrimSuffix(arg, "/"))
		}
	}
	return out, nil
}
