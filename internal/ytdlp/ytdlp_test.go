package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/testutil"
)

func TestAudioQuality(t *testing.T) {
	tests := map[string]string{
		"":        "0",
		"auto":    "0",
		"disable": "0",
		"320k":    "320K",
		"128K":    "128K",
	}
	for in, want := range tests {
		if got := AudioQuality(in); got != want {
			t.Errorf("AudioQuality(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyOutput(t *testing.T) {
	tests := map[string]model.ErrorClass{
		"ERROR: [youtube] abc: Private video. Sign in if you've been granted access": model.ClassUnavailable,
		"ERROR: [youtube] abc: Video unavailable":                                     model.ClassUnavailable,
		"ERROR: unable to download webpage: HTTP Error 429: Too Many Requests":        model.ClassRateLimited,
		"ERROR: something broke":                                                      model.ClassUnknown,
	}
	for out, want := range tests {
		if got := ClassifyOutput(out); got != want {
			t.Errorf("ClassifyOutput(%q) = %s, want %s", out, got, want)
		}
	}
	if model.ClassUnavailable.Retryable() {
		t.Fatal("unavailable videos should not be retried")
	}
}

func TestPlaylistID(t *testing.T) {
	if got := PlaylistID("https://www.youtube.com/playlist?list=PL123&si=x"); got != "PL123" {
		t.Fatalf("PlaylistID() = %q", got)
	}
	if got := PlaylistID("https://youtu.be/abc"); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestInspectPlaylist_RejectsNonPlaylist(t *testing.T) {
	if _, err := InspectPlaylist(context.Background(), "https://youtu.be/abc", 0); err == nil {
		t.Fatal("expected error for non-playlist URL")
	}
}

func TestCheck_ExplicitBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	testutil.WriteScript(t, bin, `echo "2025.01.15"`)
	path, version, err := Check(context.Background(), bin, false)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if path != bin || version != "2025.01.15" {
		t.Fatalf("Check() = %q, %q", path, version)
	}
}

func TestCheck_MissingExplicitBinary(t *testing.T) {
	_, _, err := Check(context.Background(), filepath.Join(t.TempDir(), "missing"), true)
	if !errors.Is(err, model.ErrBackendMissing) {
		t.Fatalf("expected ErrBackendMissing, got %v", err)
	}
}

func TestRunner_RunFailureIsClassified(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	testutil.WriteScript(t, bin, `echo "ERROR: [youtube] abc: Video unavailable" >&2
exit 1`)
	r := NewRunner(Options{Bin: bin})
	_, err := r.Run(context.Background(), model.Request{
		Target:         "https://youtu.be/abc",
		Kind:           model.KindVideo,
		OutputDir:      t.TempDir(),
		OutputTemplate: "%(title)s.%(ext)s",
	})
	var be *model.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.Class != model.ClassUnavailable {
		t.Fatalf("expected unavailable class, got %s", be.Class)
	}
}

func TestRunner_CommandPlaylistFlags(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.LinkKind
		want    []string
		without []string
	}{
		{"video", model.KindVideo, []string{"--no-playlist"}, []string{"--yes-playlist", "--download-archive"}},
		{"playlist", model.KindYTPlaylist, []string{"--yes-playlist"}, []string{"--download-archive"}},
		{"channel", model.KindChannel, []string{"--yes-playlist", "--download-archive"}, []string{"--no-playlist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			bin := filepath.Join(dir, "yt-dlp")
			record := filepath.Join(dir, "args.txt")
			testutil.WriteScript(t, bin, `printf '%s\n' "$@" > "`+record+`"`)
			archive := filepath.Join(dir, "archive.txt")

			r := NewRunner(Options{Bin: bin, ArchiveFile: archive})
			_, _ = r.Run(context.Background(), model.Request{
				Target:         "https://www.youtube.com/@LofiGirl",
				Kind:           tt.kind,
				OutputDir:      dir,
				OutputTemplate: "%(title)s.%(ext)s",
			})

			args := strings.Split(strings.TrimSpace(testutil.ReadFile(t, record)), "\n")
			for _, flag := range tt.want {
				if !slices.Contains(args, flag) {
					t.Fatalf("missing %s in %v", flag, args)
				}
			}
			for _, flag := range tt.without {
				if slices.Contains(args, flag) {
					t.Fatalf("unexpected %s in %v", flag, args)
				}
			}
			if tt.kind == model.KindChannel {
				i := slices.Index(args, "--download-archive")
				if i+1 >= len(args) || args[i+1] != archive {
					t.Fatalf("archive file not passed: %v", args)
				}
			}
		})
	}
}

func TestOptionsFromConfig_ArchiveUnderLogDir(t *testing.T) {
	opts := OptionsFromConfig(&model.Config{LogDir: "/var/log/tunegrab"})
	if opts.ArchiveFile != filepath.Join("/var/log/tunegrab", model.ChannelArchiveFile) {
		t.Fatalf("ArchiveFile = %q", opts.ArchiveFile)
	}
}
