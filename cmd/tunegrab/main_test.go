package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmagar/tunegrab/internal/config"
	"github.com/jmagar/tunegrab/internal/download"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/testutil"
)

const fakeSpotdl = `case "$1" in
--version) echo "4.2.11"; exit 0 ;;
--help) echo "usage: spotdl [options]"; exit 0 ;;
esac
echo "$2" >> "$TG_MARKER"
case "$2" in
*fail*) echo "AudioProviderError: YT-DLP download error" >&2; exit 1 ;;
*nomatch*) echo "LookupError: No results found for song: Nobody - Nothing" >&2; exit 0 ;;
esac
dir=$(dirname "$4")
mkdir -p "$dir"
echo audio > "$dir/song-$$.mp3"
echo 'Downloaded "Artist - Song": https://x/1'
exit 0`

func newTestApp(t *testing.T) (*app, string) {
	t.Helper()
	tmp := t.TempDir()
	marker := filepath.Join(tmp, "calls.txt")
	t.Setenv("TG_MARKER", marker)
	bin := testutil.FakeBin(t, "spotdl", fakeSpotdl)

	cfg := config.Default()
	cfg.OutPath = filepath.Join(tmp, "out")
	cfg.LogDir = filepath.Join(tmp, "log")
	cfg.SpotdlBin = bin
	cfg.MaxRetries = 1
	cfg.AutoInstall = false
	cfg.WritePlaylistFile = false
	return newApp(cfg, nil, nil), marker
}

func TestDownloadTargets_LinkFileMarksEntries(t *testing.T) {
	a, _ := newTestApp(t)
	linkFile := filepath.Join(t.TempDir(), "links.txt")
	testutil.WriteFile(t, linkFile, "# my links\nhttps://open.spotify.com/track/ok1\nhttps://open.spotify.com/track/fail1\n")

	var code int
	testutil.CaptureStdout(t, func() {
		code = a.downloadTargets(context.Background(), []string{linkFile})
	})
	if code != download.ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, download.ExitFailed)
	}

	got := testutil.ReadFile(t, linkFile)
	want := "# my links\nhttps://open.spotify.com/track/ok1 # DOWNLOADED\nhttps://open.spotify.com/track/fail1 # FAILED\n"
	if got != want {
		t.Fatalf("link file =\n%q\nwant\n%q", got, want)
	}
}

func TestDispatch_FileCommandTreatsAnyPathAsLinkFile(t *testing.T) {
	for _, name := range []string{"links.list", "mylinks"} {
		t.Run(name, func(t *testing.T) {
			a, marker := newTestApp(t)
			linkFile := filepath.Join(t.TempDir(), name)
			testutil.WriteFile(t, linkFile, "https://open.spotify.com/track/ok1\n")
			a.cfg.Urls = []string{"file", linkFile}

			var code int
			testutil.CaptureStdout(t, func() {
				code = a.dispatch(context.Background())
			})
			if code != download.ExitOK {
				t.Fatalf("exit code = %d, want 0", code)
			}
			if got := strings.TrimSpace(testutil.ReadFile(t, marker)); got != "https://open.spotify.com/track/ok1" {
				t.Fatalf("spotdl target = %q, want the link from the file", got)
			}
			if got := testutil.ReadFile(t, linkFile); got != "https://open.spotify.com/track/ok1 # DOWNLOADED\n" {
				t.Fatalf("link file = %q", got)
			}
		})
	}
}

func TestDownloadTargets_CleanExitWithLookupErrorIsFailed(t *testing.T) {
	a, marker := newTestApp(t)
	linkFile := filepath.Join(t.TempDir(), "links.txt")
	testutil.WriteFile(t, linkFile, "https://open.spotify.com/track/nomatch\n")

	var code int
	testutil.CaptureStdout(t, func() {
		code = a.downloadTargets(context.Background(), []string{linkFile})
	})
	if code != download.ExitFailed {
		t.Fatalf("exit code = %d, want %d", code, download.ExitFailed)
	}
	if got := testutil.ReadFile(t, linkFile); got != "https://open.spotify.com/track/nomatch # FAILED\n" {
		t.Fatalf("link file = %q", got)
	}
	// No-results is not retried.
	if got := strings.Count(testutil.ReadFile(t, marker), "nomatch"); got != 1 {
		t.Fatalf("spotdl ran %d times, want 1", got)
	}
}

func TestDispatch_SearchJoinsQuery(t *testing.T) {
	a, marker := newTestApp(t)
	a.cfg.Urls = []string{"search", "daft", "punk"}

	var code int
	testutil.CaptureStdout(t, func() {
		code = a.dispatch(context.Background())
	})
	if code != download.ExitOK {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if got := strings.TrimSpace(testutil.ReadFile(t, marker)); got != "daft punk" {
		t.Fatalf("spotdl target = %q, want %q", got, "daft punk")
	}
}

func TestDispatch_BackendMissingIsFatal(t *testing.T) {
	a, _ := newTestApp(t)
	a.cfg.SpotdlBin = filepath.Join(t.TempDir(), "missing-spotdl")
	a.tool.Bin = a.cfg.SpotdlBin
	a.cfg.Urls = []string{"https://open.spotify.com/track/ok1"}

	var code int
	out := testutil.CaptureStdout(t, func() {
		code = a.dispatch(context.Background())
	})
	if code != download.ExitFatal {
		t.Fatalf("exit code = %d, want %d", code, download.ExitFatal)
	}
	if !strings.Contains(out, "pip install spotdl") {
		t.Fatalf("expected install advice, got:\n%s", out)
	}
}

func TestDispatch_CancelledBeforeStart(t *testing.T) {
	a, _ := newTestApp(t)
	a.cfg.Urls = []string{"https://open.spotify.com/track/ok1"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var code int
	testutil.CaptureStdout(t, func() {
		code = a.dispatch(ctx)
	})
	if code != download.ExitCancelled {
		t.Fatalf("exit code = %d, want %d", code, download.ExitCancelled)
	}
}

func TestConfigCommand_UnknownAction(t *testing.T) {
	if err := configCommand(context.Background(), config.Default(), []string{"config", "wipe"}); err == nil {
		t.Fatal("expected error for unknown config action")
	}
}

func TestCommandResult(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, download.ExitOK},
		{model.ErrCancelled, download.ExitCancelled},
		{model.ErrNoLinks, download.ExitFatal},
	}
	for _, tt := range tests {
		var got int
		testutil.CaptureStdout(t, func() { got = commandResult(tt.err) })
		if got != tt.want {
			t.Errorf("commandResult(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestArgsDescription_ListsCommands(t *testing.T) {
	desc := argsDescription()
	for _, cmd := range []string{"file [path]", "search <query>", "inspect <url>", "watch [path]", "completion <shell>"} {
		if !strings.Contains(desc, cmd) {
			t.Errorf("help text missing %q", cmd)
		}
	}
}

func TestFormatLength(t *testing.T) {
	if got := formatLength(215e9); got != "3:35" {
		t.Fatalf("formatLength = %q, want 3:35", got)
	}
}
