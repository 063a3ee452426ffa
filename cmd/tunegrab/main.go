package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmagar/tunegrab/internal/config"
	"github.com/jmagar/tunegrab/internal/download"
	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/journal"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/notify"
	"github.com/jmagar/tunegrab/internal/runtime"
	"github.com/jmagar/tunegrab/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// "tunegrab help" behaves like --help.
	if len(os.Args) > 1 && os.Args[1] == "help" {
		os.Args[1] = "--help"
	}

	args := config.ParseArgs()
	slog.SetDefault(journal.SetupLogger(os.Stderr, args.Verbose, os.Getenv("TUNEGRAB_LOG_FORMAT")))

	cfg, err := config.ParseCfg(args)
	if err != nil {
		helpers.ReportErr("Failed to parse config/args.", err)
		return download.ExitFatal
	}

	// Commands that need neither backends nor a journal.
	if len(cfg.Urls) > 0 {
		switch cfg.Urls[0] {
		case "completion":
			return commandResult(completionCommand(cfg.Urls))
		case "info":
			programInfo()
			return download.ExitOK
		case "config":
			return commandResult(configCommand(context.Background(), cfg, cfg.Urls))
		}
	}
	if len(cfg.Urls) == 0 && !runtime.IsInteractive() {
		printUsage()
		return download.ExitOK
	}

	fmt.Println(banner)

	runtime.SetupSessionPersistence()
	ctx, cancel := runtime.SignalContext(context.Background())
	defer cancel()

	if err := helpers.MakeDirs(cfg.OutPath); err != nil {
		helpers.ReportErr("Failed to make output folder.", err)
		return download.ExitFatal
	}

	j, err := journal.Open(cfg.LogDir)
	if err != nil {
		ui.PrintWarning(fmt.Sprintf("Logging to files disabled: %v", err))
	}
	defer j.Close()

	a := newApp(cfg, j, notify.BuildNotifier(cfg.GotifyURL, cfg.GotifyToken))
	code := a.dispatch(ctx)
	if ctx.Err() != nil && code == download.ExitOK {
		code = download.ExitCancelled
	}
	return code
}

// commandResult maps a command error to an exit code.
func commandResult(err error) int {
	switch {
	case err == nil:
		return download.ExitOK
	case errors.Is(err, model.ErrCancelled):
		return download.ExitCancelled
	default:
		ui.PrintError(err.Error())
		return download.ExitFatal
	}
}
