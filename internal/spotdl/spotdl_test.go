package spotdl

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/testutil"
)

func TestBuildArgs(t *testing.T) {
	req := model.Request{
		Target:         "https://open.spotify.com/playlist/abc",
		Kind:           model.KindPlaylist,
		OutputDir:      "Albums",
		OutputTemplate: "{playlist}/{title}.{output-ext}",
		ExtraArgs:      []string{"--playlist-numbering"},
	}
	args := BuildArgs(req, Options{Bitrate: "320K", Format: "flac", FfmpegPath: "/usr/bin/ffmpeg", Lyrics: "synced", ExtraArgs: []string{"--threads", "2"}})

	want := []string{
		"download", "https://open.spotify.com/playlist/abc",
		"--output", filepath.Join("Albums", "{playlist}/{title}.{output-ext}"),
		"--overwrite", "skip",
		"--bitrate", "320k",
		"--format", "flac",
		"--simple-tui",
		"--ffmpeg", "/usr/bin/ffmpeg",
		"--lyrics", "synced",
		"--playlist-numbering",
		"--threads", "2",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("BuildArgs() =\n%v\nwant\n%v", args, want)
	}
}

func TestBuildArgs_Defaults(t *testing.T) {
	args := BuildArgs(model.Request{Target: "saved", OutputTemplate: "{title}.{output-ext}", ExtraArgs: []string{"--user-auth"}}, Options{})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--bitrate 320k") || !strings.Contains(joined, "--format mp3") {
		t.Fatalf("expected default bitrate and format, got %q", joined)
	}
	if strings.Contains(joined, "--lyrics") {
		t.Fatalf("lyrics requested without a provider: %q", joined)
	}
	if args[len(args)-1] != "--user-auth" {
		t.Fatalf("expected --user-auth last, got %v", args)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line  string
		typ   EventType
		count int
		title string
	}{
		{"Found 12 songs in Chill Mix (Playlist)", EventFound, 12, "Chill Mix (Playlist)"},
		{"Found 1 song in One More Time", EventFound, 1, "One More Time"},
		{`Downloaded "Daft Punk - One More Time": https://music.youtube.com/watch?v=x`, EventDownloaded, 1, "Daft Punk - One More Time"},
		{"Skipping Daft Punk - Aerodynamic (file already exists) (duplicate)", EventSkipped, 1, "Daft Punk - Aerodynamic"},
		{"LookupError: No results found for song: Foo - Bar", EventLookupFailed, 1, "Foo - Bar"},
	}
	for _, tt := range tests {
		ev, ok := ParseLine(tt.line)
		if !ok {
			t.Fatalf("ParseLine(%q) not recognised", tt.line)
		}
		if ev.Type != tt.typ || ev.Count != tt.count || ev.Title != tt.title {
			t.Errorf("ParseLine(%q) = %+v", tt.line, ev)
		}
	}
	if _, ok := ParseLine("Processing query: foo"); ok {
		t.Fatal("unexpected match for unrelated line")
	}
}

func TestClassifyOutput(t *testing.T) {
	tests := map[string]model.ErrorClass{
		"Traceback...\nTypeError: expected string or bytes-like object, got 'NoneType'": model.ClassMetadata,
		"LookupError: No results found for song: x - y":                                 model.ClassNoResults,
		"spotdl.providers.audio.base.AudioProviderError: YT-DLP download error":         model.ClassProvider,
		"HTTP Error 429: Too Many Requests":                                             model.ClassRateLimited,
		"something else":                                                                model.ClassUnknown,
	}
	for output, want := range tests {
		if got := ClassifyOutput(output); got != want {
			t.Errorf("ClassifyOutput(%q) = %s, want %s", output, got, want)
		}
	}
}

func TestRunner_RunParsesProgress(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", `echo "Found 3 songs in Mix (Playlist)"
echo 'Downloaded "A - One": https://x/1'
echo 'Downloaded "A - Two": https://x/2'
echo "Skipping A - Three (file already exists)" >&2
exit 0`)

	var events []Event
	r := NewRunner(Options{Bin: bin})
	r.OnEvent = func(ev Event) { events = append(events, ev) }

	res, err := r.Run(context.Background(), model.Request{Target: "https://open.spotify.com/playlist/x", OutputTemplate: "{title}.{output-ext}"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Found != 3 || res.Downloaded != 2 || res.Skipped != 1 || res.Title != "Mix (Playlist)" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
}

func TestRunner_RunClassifiesFailure(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", `echo "LookupError: No results found for song: Foo - Bar" >&2
exit 1`)

	res, err := NewRunner(Options{Bin: bin}).Run(context.Background(), model.Request{Target: "foo bar"})
	var be *model.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.Class != model.ClassNoResults || be.ExitCode != 1 || res.ExitCode != 1 {
		t.Fatalf("unexpected error: %+v", be)
	}
	if model.IsRetryable(err) {
		t.Fatal("no-results should not be retryable")
	}
}

func TestRunner_RunCleanExitWithErrorOutput(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantClass   model.ErrorClass
		wantNothing bool
	}{
		{
			name: "no results",
			script: `echo "LookupError: No results found for song: Foo - Bar" >&2
exit 0`,
			wantClass:   model.ClassNoResults,
			wantNothing: true,
		},
		{
			name: "metadata error after partial playlist",
			script: `echo 'Found 2 songs in Mix (Playlist)'
echo 'Downloaded "A - One": https://youtube.com/watch?v=1'
echo "TypeError: expected string or bytes-like object, got 'NoneType'" >&2
exit 0`,
			wantClass: model.ClassMetadata,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := testutil.FakeBin(t, "spotdl", tt.script)
			_, err := NewRunner(Options{Bin: bin}).Run(context.Background(), model.Request{Target: "https://open.spotify.com/track/abc"})
			var be *model.BackendError
			if !errors.As(err, &be) {
				t.Fatalf("expected BackendError, got %v", err)
			}
			if be.Class != tt.wantClass || be.ExitCode != 0 {
				t.Fatalf("unexpected error: %+v", be)
			}
			if got := errors.Is(err, model.ErrNothingDownloaded); got != tt.wantNothing {
				t.Fatalf("ErrNothingDownloaded = %v, want %v", got, tt.wantNothing)
			}
			if model.IsRetryable(err) {
				t.Fatal("error output on a clean exit should not be retried")
			}
		})
	}
}

func TestRunner_RunCleanExitIgnoresProviderNoise(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", `echo 'Downloaded "A - One": https://youtube.com/watch?v=1'
echo "AudioProviderError: retrying with another provider" >&2
exit 0`)
	res, err := NewRunner(Options{Bin: bin}).Run(context.Background(), model.Request{Target: "https://open.spotify.com/track/abc"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Downloaded != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunner_RunMissingBinary(t *testing.T) {
	_, err := NewRunner(Options{Bin: filepath.Join(t.TempDir(), "nope")}).Run(context.Background(), model.Request{Target: "x"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRunner_RunTimeout(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", "exec sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := NewRunner(Options{Bin: bin}).Run(ctx, model.Request{Target: "x"})
	var be *model.BackendError
	if !errors.As(err, &be) || !model.IsRetryable(err) {
		t.Fatalf("expected retryable timeout error, got %v", err)
	}
}

func TestRunner_RunCancelled(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", "exec sleep 5")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := NewRunner(Options{Bin: bin}).Run(ctx, model.Request{Target: "x"})
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestTool_CheckReportsVersion(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", `echo "4.2.11"`)
	version, err := Tool{Bin: bin}.Check(context.Background(), false)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if version != "4.2.11" {
		t.Fatalf("expected version 4.2.11, got %q", version)
	}
}

func TestTool_CheckMissingWithoutInstall(t *testing.T) {
	_, err := Tool{Bin: "tunegrab-no-such-spotdl"}.Check(context.Background(), false)
	if !errors.Is(err, model.ErrBackendMissing) {
		t.Fatalf("expected ErrBackendMissing, got %v", err)
	}
}

func TestTool_InstallUsesConfiguredPython(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "args")
	python := filepath.Join(dir, "python-fake")
	testutil.WriteScript(t, python, `echo "$@" > `+marker)

	if err := (Tool{Bin: "spotdl", Python: python}).Install(context.Background()); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	data := testutil.ReadFile(t, marker)
	if strings.TrimSpace(data) != "-m pip install spotdl" {
		t.Fatalf("unexpected pip invocation: %q", data)
	}
}

func TestTool_InspectReadsSaveFile(t *testing.T) {
	bin := testutil.FakeBin(t, "spotdl", `echo '[{"name":"One","artists":["A","B"],"album_name":"X","duration":245,"url":"https://x"}]' > "$4"`)
	songs, err := Tool{Bin: bin}.Inspect(context.Background(), "https://open.spotify.com/album/x")
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if len(songs) != 1 || songs[0].Artist() != "A, B" || songs[0].Length() != 245*time.Second {
		t.Fatalf("unexpected songs: %+v", songs)
	}
}
