package spotdl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Song is the subset of spotdl's saved song metadata shown in previews.
type Song struct {
	Name      string   `json:"name"`
	Artists   []string `json:"artists"`
	AlbumName string   `json:"album_name"`
	Duration  float64  `json:"duration"`
	URL       string   `json:"url"`
}

// Artist returns the artists joined for display.
func (s Song) Artist() string {
	return strings.Join(s.Artists, ", ")
}

// Length returns the track duration.
func (s Song) Length() time.Duration {
	return time.Duration(s.Duration * float64(time.Second))
}

// Inspect resolves a link to its tracks without downloading, using
// `spotdl save`.
func (t Tool) Inspect(ctx context.Context, target string) ([]Song, error) {
	dir, err := os.MkdirTemp("", "tunegrab-inspect-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	saveFile := filepath.Join(dir, "songs.spotdl")
	cmd := exec.CommandContext(ctx, t.Bin, "save", target, "--save-file", saveFile)
	cmd.Env = append(os.Environ(), "PYTHONUTF8=1", "PYTHONIOENCODING=utf-8")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("spotdl save failed: %w: %s", err, lastLine(string(out)))
	}
	return ReadSaveFile(saveFile)
}

// ReadSaveFile decodes a spotdl save file.
func ReadSaveFile(path string) ([]Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode save file: %w", err)
	}
	return songs, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
