package links

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/testutil"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		target  string
		kind    model.LinkKind
		backend model.Backend
	}{
		{"https://open.spotify.com/track/4jTrKMoc44RYZsoFsIlQev", model.KindTrack, model.BackendSpotdl},
		{"https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3?si=x", model.KindAlbum, model.BackendSpotdl},
		{"https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M", model.KindPlaylist, model.BackendSpotdl},
		{"https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF", model.KindArtist, model.BackendSpotdl},
		{"spotify:album:1DFixLWuPkv3KT3TnV35m3", model.KindAlbum, model.BackendSpotdl},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", model.KindVideo, model.BackendYtdlp},
		{"https://youtu.be/dQw4w9WgXcQ", model.KindVideo, model.BackendYtdlp},
		{"https://music.youtube.com/playlist?list=PL123", model.KindYTPlaylist, model.BackendYtdlp},
		{"https://www.youtube.com/@LofiGirl", model.KindChannel, model.BackendYtdlp},
		{"https://www.youtube.com/channel/UCSJ4gkVC6NrvII8umztf0Ow/videos", model.KindChannel, model.BackendYtdlp},
		{"https://youtube.com/c/LofiGirl", model.KindChannel, model.BackendYtdlp},
		{"https://www.youtube.com/user/Vevo", model.KindChannel, model.BackendYtdlp},
		{"https://www.youtube.com/channel/", model.KindVideo, model.BackendYtdlp},
		{"https://soundcloud.com/artist/song", model.KindTrack, model.BackendSpotdl},
		{"Daft Punk - One More Time", model.KindSearch, model.BackendSpotdl},
		{"ftp://example.com/a.mp3", model.KindSearch, model.BackendSpotdl},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			kind, backend := Classify(tt.target)
			if kind != tt.kind || backend != tt.backend {
				t.Fatalf("Classify(%q) = (%s, %s), want (%s, %s)", tt.target, kind, backend, tt.kind, tt.backend)
			}
		})
	}
}

func TestNewRequest_TemplatesByKind(t *testing.T) {
	tests := []struct {
		target   string
		template string
		extra    int
	}{
		{"https://open.spotify.com/playlist/abc", "{playlist}/{title}.{output-ext}", 2},
		{"https://open.spotify.com/album/abc", "{artist}/{album}/{title}.{output-ext}", 0},
		{"https://open.spotify.com/track/abc", "{artist} - {title}.{output-ext}", 0},
		{"some song", "{artist}/{album}/{title}.{output-ext}", 0},
		{"https://www.youtube.com/playlist?list=PL1", "%(playlist_title)s/%(playlist_index)02d - %(title)s.%(ext)s", 0},
		{"https://www.youtube.com/@LofiGirl", "Channels/%(channel,uploader)s/%(title)s.%(ext)s", 0},
	}
	for _, tt := range tests {
		req := NewRequest(tt.target, "/out")
		if req.OutputTemplate != tt.template {
			t.Errorf("%s: template = %q, want %q", tt.target, req.OutputTemplate, tt.template)
		}
		if len(req.ExtraArgs) != tt.extra {
			t.Errorf("%s: extra args = %v", tt.target, req.ExtraArgs)
		}
		if req.OutputDir != "/out" {
			t.Errorf("%s: output dir = %q", tt.target, req.OutputDir)
		}
	}
}

func TestNewAccountRequest(t *testing.T) {
	req := NewAccountRequest(model.AccountPlaylists, "/out")
	if req.Kind != model.KindAccount || req.Backend != model.BackendSpotdl {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.OutputTemplate != "{playlist}/{title}.{output-ext}" {
		t.Fatalf("unexpected template %q", req.OutputTemplate)
	}
	if len(req.ExtraArgs) != 1 || req.ExtraArgs[0] != "--user-auth" {
		t.Fatalf("expected --user-auth, got %v", req.ExtraArgs)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line   string
		ok     bool
		url    string
		note   string
		status Status
	}{
		{"", false, "", "", StatusNone},
		{"   # comment", false, "", "", StatusNone},
		{"https://x/track/1", true, "https://x/track/1", "", StatusNone},
		{"https://x/track/1 # DOWNLOADED", true, "https://x/track/1", "", StatusDownloaded},
		{"https://x/track/1 # failed", true, "https://x/track/1", "", StatusFailed},
		{"https://x/track/1 # birthday mix # FAILED", true, "https://x/track/1", "birthday mix", StatusFailed},
		{"https://x/track/1 # birthday mix", true, "https://x/track/1", "birthday mix", StatusNone},
		{"https://x/page#frag # DOWNLOADED", true, "https://x/page#frag", "", StatusDownloaded},
	}
	for _, tt := range tests {
		entry, ok := ParseLine(tt.line)
		if ok != tt.ok {
			t.Fatalf("ParseLine(%q) ok = %v", tt.line, ok)
		}
		if !ok {
			continue
		}
		if entry.URL != tt.url || entry.Note != tt.note || entry.Status != tt.status {
			t.Errorf("ParseLine(%q) = %+v", tt.line, entry)
		}
	}
}

func writeLinks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write links: %v", err)
	}
	return path
}

func TestLedger_PendingSkipsDownloaded(t *testing.T) {
	path := writeLinks(t, "# my list\nhttps://a # DOWNLOADED\n\nhttps://b # FAILED\nhttps://c\n")
	l, err := LoadLedger(path)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}

	pending := l.Pending(true)
	if len(pending) != 2 || pending[0].URL != "https://b" || pending[1].URL != "https://c" {
		t.Fatalf("unexpected pending with retry: %+v", pending)
	}
	pending = l.Pending(false)
	if len(pending) != 1 || pending[0].URL != "https://c" {
		t.Fatalf("unexpected pending without retry: %+v", pending)
	}

	d, f, u := l.Counts()
	if d != 1 || f != 1 || u != 1 {
		t.Fatalf("Counts() = %d %d %d", d, f, u)
	}
}

func TestLedger_MarkAndSavePreservesLayout(t *testing.T) {
	path := writeLinks(t, "# my list\nhttps://a # DOWNLOADED\n\nhttps://b # keep me # FAILED\nhttps://c")
	l, err := LoadLedger(path)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	pending := l.Pending(true)
	if err := l.Mark(pending[0].Index, StatusDownloaded); err != nil {
		t.Fatal(err)
	}
	if err := l.Mark(pending[1].Index, StatusFailed); err != nil {
		t.Fatal(err)
	}
	if err := l.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "# my list\nhttps://a # DOWNLOADED\n\nhttps://b # keep me # DOWNLOADED\nhttps://c # FAILED\n"
	if string(data) != want {
		t.Fatalf("saved file mismatch:\n got: %q\nwant: %q", string(data), want)
	}
}

func TestLedger_SaveKeepsLinesAppendedOnDisk(t *testing.T) {
	path := writeLinks(t, "https://a\n")
	l, err := LoadLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("https://a\nhttps://new\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := l.Mark(0, StatusDownloaded); err != nil {
		t.Fatal(err)
	}
	if err := l.Save(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "https://new\n") || !strings.Contains(string(data), "https://a # DOWNLOADED") {
		t.Fatalf("expected appended line kept and mark applied, got %q", string(data))
	}
}

func TestLedger_MarksAreCaseSensitiveInPath(t *testing.T) {
	path := writeLinks(t, "https://open.spotify.com/track/4uLU6hMCjMI\nhttps://open.spotify.com/track/4ulu6hmcjmi\n")
	l, err := LoadLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Mark(l.Pending(false)[0].Index, StatusDownloaded); err != nil {
		t.Fatal(err)
	}
	if err := l.Save(); err != nil {
		t.Fatal(err)
	}
	want := "https://open.spotify.com/track/4uLU6hMCjMI # DOWNLOADED\nhttps://open.spotify.com/track/4ulu6hmcjmi\n"
	if got := testutil.ReadFile(t, path); got != want {
		t.Fatalf("saved file mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestLedger_MarkOutOfRange(t *testing.T) {
	l, err := LoadLedger(writeLinks(t, "https://a\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Mark(3, StatusFailed); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestLoadLedger_Missing(t *testing.T) {
	_, err := LoadLedger(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, ErrLinkFileNotFound) {
		t.Fatalf("expected ErrLinkFileNotFound, got %v", err)
	}
}

func TestAcquireLock_ReleaseAllowsReacquire(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "locks", "x.lock")
	lock, err := AcquireLock(lockPath, 0)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	if _, err := AcquireLock(lockPath, 0); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked while held, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	lock, err = AcquireLock(lockPath, 0)
	if err != nil {
		t.Fatalf("second AcquireLock: %v", err)
	}
	_ = lock.Release()
}
