package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jmagar/tunegrab/internal/completion"
	"github.com/jmagar/tunegrab/internal/config"
	"github.com/jmagar/tunegrab/internal/download"
	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/journal"
	"github.com/jmagar/tunegrab/internal/links"
	"github.com/jmagar/tunegrab/internal/menu"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/notify"
	"github.com/jmagar/tunegrab/internal/rclone"
	"github.com/jmagar/tunegrab/internal/spotdl"
	"github.com/jmagar/tunegrab/internal/ui"
	"github.com/jmagar/tunegrab/internal/watch"
	"github.com/jmagar/tunegrab/internal/ytdlp"
)

// ytdlpNeed says how a command depends on yt-dlp.
type ytdlpNeed int

const (
	ytdlpSkip ytdlpNeed = iota
	ytdlpOptional
	ytdlpRequired
)

// errBackendSetup marks failures already reported by ensureBackends.
var errBackendSetup = errors.New("backend setup failed")

type app struct {
	cfg      *model.Config
	journal  *journal.Journal
	notifier *notify.Notifier
	tool     spotdl.Tool
}

func newApp(cfg *model.Config, j *journal.Journal, n *notify.Notifier) *app {
	tool := spotdl.NewTool(cfg)
	tool.Out = os.Stdout
	return &app{cfg: cfg, journal: j, notifier: n, tool: tool}
}

// engine builds a download engine from the current config. The menu edits
// bitrate, format and output path between operations, so engines are not
// cached.
func (a *app) engine() *download.Engine {
	sp := spotdl.NewRunner(spotdl.OptionsFromConfig(a.cfg))
	sp.OnEvent = printSpotdlEvent
	if a.cfg.Verbose {
		sp.Echo = os.Stdout
	}

	yt := ytdlp.NewRunner(ytdlp.OptionsFromConfig(a.cfg))
	yt.OnProgress = func(percent int, speed, downloaded, total string) {
		ui.PrintDownloadProgress(percent, speed, downloaded, total)
	}

	deps := &download.Deps{}
	if a.cfg.RcloneEnabled {
		deps.Upload = func(ctx context.Context, localPath, remoteDir string) error {
			return rclone.Upload(ctx, a.cfg, localPath, remoteDir)
		}
	}
	return download.NewEngine(a.cfg, a.journal, deps, sp, yt)
}

func printSpotdlEvent(ev spotdl.Event) {
	switch ev.Type {
	case spotdl.EventFound:
		ui.PrintInfo(fmt.Sprintf("Found %d song(s) in %s", ev.Count, ev.Title))
	case spotdl.EventDownloaded:
		ui.PrintMusic("Downloaded " + ev.Title)
	case spotdl.EventSkipped:
		ui.PrintInfo("Skipping " + ev.Title + " (already exists)")
	case spotdl.EventLookupFailed:
		ui.PrintWarning("No results found for " + ev.Title)
	}
}

// dispatch runs the command named by cfg.Urls and returns the exit code.
func (a *app) dispatch(ctx context.Context) int {
	urls := a.cfg.Urls
	if len(urls) == 0 {
		return a.runMenu(ctx)
	}

	switch urls[0] {
	case "check":
		return commandResult(a.checkCommand(ctx))
	case "backend-help":
		if err := a.ensureBackends(ctx, ytdlpSkip); err != nil {
			return download.ExitFatal
		}
		return commandResult(a.backendHelp(ctx))
	case "inspect":
		if len(urls) < 2 {
			ui.PrintInfo("Usage: tunegrab inspect <url>")
			return download.ExitFatal
		}
		need := ytdlpSkip
		if links.IsYouTubeURL(urls[1]) {
			need = ytdlpRequired
		}
		if err := a.ensureBackends(ctx, need); err != nil {
			return download.ExitFatal
		}
		return commandResult(a.inspect(ctx, urls[1]))
	case "watch":
		path := a.cfg.LinksFile
		if len(urls) > 1 {
			path = urls[1]
		}
		if err := a.ensureBackends(ctx, ytdlpOptional); err != nil {
			return download.ExitFatal
		}
		return commandResult(a.watch(ctx, path))
	case "file":
		path := a.cfg.LinksFile
		if len(urls) > 1 {
			path = urls[1]
		}
		return a.downloadTargets(ctx, nil, path)
	case "search":
		if len(urls) < 2 {
			ui.PrintInfo("Usage: tunegrab search <query>")
			return download.ExitFatal
		}
		return a.downloadTargets(ctx, []string{strings.Join(urls[1:], " ")})
	case "saved":
		return a.account(ctx, model.AccountSaved)
	case "playlists":
		return a.account(ctx, model.AccountPlaylists)
	case "albums":
		return a.account(ctx, model.AccountAlbums)
	}
	return a.downloadTargets(ctx, urls)
}

// ensureBackends checks spotdl and ffmpeg and, depending on need, yt-dlp.
// Missing tools are installed when autoInstall is set.
func (a *app) ensureBackends(ctx context.Context, need ytdlpNeed) error {
	version, err := a.tool.Check(ctx, a.cfg.AutoInstall)
	if err != nil {
		ui.PrintError(err.Error())
		fmt.Println("\nFailed to install spotdl. Please install it manually using:")
		fmt.Println("pip install spotdl")
		fmt.Println("Then run the program again.")
		return fmt.Errorf("%w: %w", errBackendSetup, err)
	}
	if version != "" {
		slog.Debug("spotdl ready", "version", version)
	}
	if err := a.tool.EnsureFfmpeg(ctx, a.cfg.FfmpegNameStr, a.cfg.AutoInstall); err != nil {
		ui.PrintWarning(err.Error())
	}

	if need == ytdlpSkip {
		return nil
	}
	bin, ytVersion, err := ytdlp.Check(ctx, a.cfg.YtdlpBin, a.cfg.AutoInstall)
	if err != nil {
		if need == ytdlpRequired {
			ui.PrintError(err.Error())
			return fmt.Errorf("%w: %w", errBackendSetup, err)
		}
		ui.PrintWarning(fmt.Sprintf("YouTube links will fail: %v", err))
		return nil
	}
	a.cfg.YtdlpBin = bin
	slog.Debug("yt-dlp ready", "path", bin, "version", ytVersion)
	return nil
}

func (a *app) checkRclone() error {
	if !a.cfg.RcloneEnabled {
		return nil
	}
	if err := rclone.CheckRcloneAvailable(false); err != nil {
		return fmt.Errorf("rclone check failed: %w", err)
	}
	return nil
}

// downloadTargets downloads command-line targets and link files and
// prints the summary.
func (a *app) downloadTargets(ctx context.Context, targets []string, linkFiles ...string) int {
	sum, err := a.download(ctx, targets, linkFiles...)
	if err != nil {
		if errors.Is(err, errBackendSetup) {
			return download.ExitFatal
		}
		return commandResult(err)
	}
	return a.finish(ctx, sum)
}

// download processes linkFiles as ledgers, then expands targets: .txt
// arguments join the ledgers and the rest are downloaded directly.
func (a *app) download(ctx context.Context, targets []string, linkFiles ...string) (*download.Summary, error) {
	expanded, err := helpers.ProcessUrls(targets)
	if err != nil {
		return nil, err
	}

	var (
		ledgers []*links.Ledger
		direct  []string
		need    = ytdlpSkip
	)
	files := slices.Clone(linkFiles)
	for _, target := range expanded {
		if helpers.IsLinkFile(target) {
			files = append(files, target)
			continue
		}
		direct = append(direct, target)
		if links.IsYouTubeURL(target) {
			need = ytdlpRequired
		}
	}
	for _, target := range files {
		ledger, err := links.LoadLedger(target)
		if err != nil {
			return nil, err
		}
		for _, entry := range ledger.Pending(a.cfg.RetryFailed) {
			if links.IsYouTubeURL(entry.URL) {
				need = ytdlpRequired
			}
		}
		ledgers = append(ledgers, ledger)
	}

	if err := a.ensureBackends(ctx, need); err != nil {
		return nil, err
	}
	if err := a.checkRclone(); err != nil {
		return nil, err
	}

	engine := a.engine()
	var sum *download.Summary
	merge := func(s *download.Summary) {
		if sum == nil {
			sum = s
			return
		}
		sum.Merge(s)
	}
	for _, ledger := range ledgers {
		if ctx.Err() != nil {
			break
		}
		s, err := engine.Batch(ctx, ledger, a.cfg.RetryFailed)
		if err != nil {
			ui.PrintWarning(err.Error())
			continue
		}
		merge(s)
	}
	if len(direct) > 0 && ctx.Err() == nil {
		merge(engine.DownloadAll(ctx, direct))
	}
	if sum == nil {
		sum = download.NewSummary(strings.Join(append(slices.Clone(linkFiles), targets...), ", "), 0)
		if ctx.Err() != nil {
			sum.Cancelled++
		}
	}
	sum.Finish()
	return sum, nil
}

func (a *app) account(ctx context.Context, op string) int {
	if err := a.ensureBackends(ctx, ytdlpSkip); err != nil {
		return download.ExitFatal
	}
	if err := a.checkRclone(); err != nil {
		return commandResult(err)
	}
	ui.PrintInfo("This requires a Spotify account; you will be redirected to Spotify for authorization")
	return a.finish(ctx, a.engine().Account(ctx, op))
}

// finish prints the summary, sends the notification and returns the
// run's exit code.
func (a *app) finish(ctx context.Context, sum *download.Summary) int {
	fmt.Println()
	sum.Print()
	a.notify(ctx, sum)
	return sum.ExitCode()
}

func (a *app) notify(ctx context.Context, sum *download.Summary) {
	if a.notifier == nil || sum.Total == 0 {
		return
	}
	title, message, priority := notify.BatchMessage(sum.Source, sum.Downloaded, sum.Failed, sum.Elapsed, sum.FailedLinks)
	// The run context may already be cancelled; still report what happened.
	if err := a.notifier.Send(context.WithoutCancel(ctx), title, message, priority); err != nil {
		slog.Warn("notification failed", "err", err)
	}
}

func (a *app) checkCommand(ctx context.Context) error {
	ui.PrintHeader("Backend Check")
	version, err := a.tool.Check(ctx, a.cfg.AutoInstall)
	if err != nil {
		fmt.Println("\nFailed to install spotdl. Please install it manually using:")
		fmt.Println("pip install spotdl")
		return err
	}
	ui.PrintSuccess("spotdl " + version)

	if err := a.tool.EnsureFfmpeg(ctx, a.cfg.FfmpegNameStr, a.cfg.AutoInstall); err != nil {
		ui.PrintWarning(err.Error())
	} else {
		ui.PrintSuccess("ffmpeg available")
	}

	bin, ytVersion, err := ytdlp.Check(ctx, a.cfg.YtdlpBin, a.cfg.AutoInstall)
	if err != nil {
		ui.PrintWarning(err.Error())
	} else {
		ui.PrintSuccess(fmt.Sprintf("yt-dlp %s (%s)", ytVersion, bin))
	}

	if a.cfg.RcloneEnabled {
		if err := rclone.CheckRcloneAvailable(false); err != nil {
			ui.PrintWarning(err.Error())
		}
	}
	return nil
}

func (a *app) backendHelp(ctx context.Context) error {
	text, err := a.tool.Help(ctx)
	if err != nil {
		return err
	}
	line := strings.Repeat("=", 50)
	fmt.Println("\n" + line)
	fmt.Println("SPOTDL HELP")
	fmt.Println(line)
	fmt.Println(text)
	return nil
}

func (a *app) inspect(ctx context.Context, target string) error {
	kind, backend := links.Classify(target)
	ui.PrintHeader(fmt.Sprintf("%s Inspect %s", ui.GetKindIndicator(kind), kind))
	ui.PrintKeyValue("Backend", ui.DescribeBackend(backend), ui.ColorCyan)

	if backend == model.BackendYtdlp {
		if kind != model.KindYTPlaylist {
			ui.PrintInfo(target)
			return nil
		}
		items, err := ytdlp.InspectPlaylist(ctx, target, a.cfg.DownloadTimeoutDur)
		if err != nil {
			return err
		}
		table := ui.NewTable([]ui.TableColumn{
			{Header: "#", Width: 5, Align: "right"},
			{Header: "Title", Width: 50, Align: "left"},
			{Header: "URL", Width: 45, Align: "left"},
		})
		for i, item := range items {
			table.AddRow(fmt.Sprint(i+1), item.Title, item.URL)
		}
		table.Print()
		ui.PrintInfo(fmt.Sprintf("%d video(s)", len(items)))
		return nil
	}

	songs, err := a.tool.Inspect(ctx, target)
	if err != nil {
		return err
	}
	table := ui.NewTable([]ui.TableColumn{
		{Header: "#", Width: 5, Align: "right"},
		{Header: "Artist", Width: 25, Align: "left"},
		{Header: "Title", Width: 35, Align: "left"},
		{Header: "Album", Width: 25, Align: "left"},
		{Header: "Length", Width: 8, Align: "right"},
	})
	for i, song := range songs {
		table.AddRow(fmt.Sprint(i+1), song.Artist(), song.Name, song.AlbumName, formatLength(song.Length()))
	}
	table.Print()
	ui.PrintInfo(fmt.Sprintf("%d song(s)", len(songs)))
	return nil
}

func (a *app) watch(ctx context.Context, path string) error {
	if err := a.checkRclone(); err != nil {
		return err
	}
	w, err := watch.New(path, a.cfg.WatchDebounceDur, func(ctx context.Context) error {
		ledger, err := links.LoadLedger(path)
		if err != nil {
			return err
		}
		if len(ledger.Entries()) == 0 {
			ui.PrintInfo("No links yet in " + path)
			return nil
		}
		sum, err := a.engine().Batch(ctx, ledger, false)
		if err != nil {
			return err
		}
		if sum.Total > 0 {
			a.finish(ctx, sum)
		}
		return nil
	}, func() ([]string, error) {
		ledger, err := links.LoadLedger(path)
		if err != nil {
			return nil, err
		}
		var urls []string
		for _, e := range ledger.Pending(false) {
			urls = append(urls, e.URL)
		}
		return urls, nil
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *app) runMenu(ctx context.Context) int {
	if err := a.ensureBackends(ctx, ytdlpOptional); err != nil {
		return download.ExitFatal
	}
	if err := a.checkRclone(); err != nil {
		return commandResult(err)
	}

	m := menu.New(a.cfg, config.NewPrompter(os.Stdin, os.Stdout), menu.Actions{
		Download: func(ctx context.Context, target string) error {
			a.finish(ctx, a.engine().DownloadAll(ctx, []string{target}))
			return nil
		},
		File: func(ctx context.Context, path string) error {
			ledger, err := links.LoadLedger(path)
			if err != nil {
				return err
			}
			sum, err := a.engine().Batch(ctx, ledger, a.cfg.RetryFailed)
			if err != nil {
				return err
			}
			a.finish(ctx, sum)
			return nil
		},
		Account: func(ctx context.Context, op string) error {
			a.finish(ctx, a.engine().Account(ctx, op))
			return nil
		},
		Check:       a.checkCommand,
		BackendHelp: a.backendHelp,
		Info:        programInfo,
	})
	return commandResult(m.Run(ctx))
}

func completionCommand(urls []string) error {
	return completion.Command(os.Stdout, urls)
}

func configCommand(ctx context.Context, cfg *model.Config, urls []string) error {
	action := "show"
	if len(urls) > 1 {
		action = urls[1]
	}
	switch action {
	case "init":
		path := config.LoadedConfigPath
		if len(urls) > 2 {
			path = urls[2]
		}
		_, err := config.PromptForConfig(config.NewPrompter(os.Stdin, os.Stdout), path)
		return err
	case "show":
		showConfig(ctx, cfg)
		return nil
	default:
		return fmt.Errorf("unknown config action: %s (use init or show)", action)
	}
}

func showConfig(ctx context.Context, cfg *model.Config) {
	ui.PrintHeader("Configuration")
	source := config.LoadedConfigPath
	if source == "" {
		source = "(defaults, no config file found)"
	}
	ui.PrintKeyValue("Config file", source, ui.ColorCyan)
	ui.PrintKeyValue("Output", cfg.OutPath, "")
	if cfg.StagingPath != "" {
		ui.PrintKeyValue("Staging", cfg.StagingPath, "")
	}
	ui.PrintKeyValue("Link file", cfg.LinksFile, "")
	ui.PrintKeyValue("Bitrate", ui.DescribeBitrate(cfg.Bitrate), "")
	ui.PrintKeyValue("Format", cfg.Format, "")
	lyrics := "None"
	if cfg.Lyrics != "" {
		lyrics = cfg.Lyrics
	}
	ui.PrintKeyValue("Lyrics", lyrics, "")
	ui.PrintKeyValue("Attempts", fmt.Sprintf("%d (delay %s)", cfg.MaxRetries, cfg.RetryDelayDur), "")
	ui.PrintKeyValue("Parallel", fmt.Sprint(cfg.MaxParallel), "")
	ui.PrintKeyValue("Auto install", fmt.Sprint(cfg.AutoInstall), "")
	ui.PrintKeyValue("Zip albums", fmt.Sprint(cfg.ZipAlbums), "")
	ui.PrintKeyValue("Playlist files", fmt.Sprint(cfg.WritePlaylistFile), "")
	ui.PrintKeyValue("Log dir", cfg.LogDir, "")
	ui.PrintKeyValue("Upload", ui.DescribeRclone(cfg), "")
	if cfg.RcloneEnabled {
		ui.PrintKeyValue("Remote", rclone.RemoteStatus(ctx, cfg), "")
	}
	notifications := "Disabled"
	if notify.BuildNotifier(cfg.GotifyURL, cfg.GotifyToken) != nil {
		notifications = "Gotify " + cfg.GotifyURL
	}
	ui.PrintKeyValue("Notifications", notifications, "")
}

func formatLength(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
