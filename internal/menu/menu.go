// Package menu implements the interactive numbered menu shown when tunegrab
// starts on a terminal without arguments.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmagar/tunegrab/internal/config"
	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

const (
	choiceExit    = "12"
	invalidChoice = "Invalid choice. Please enter a number between 1 and 12."
	goodbye       = "\nThank you for using tunegrab. Goodbye!"
)

// Actions are the operations the menu dispatches to.
type Actions struct {
	Download    func(ctx context.Context, target string) error
	File        func(ctx context.Context, path string) error
	Account     func(ctx context.Context, op string) error
	Check       func(ctx context.Context) error
	BackendHelp func(ctx context.Context) error
	Info        func()
}

// Menu runs the interactive loop against a prompter.
type Menu struct {
	cfg     *model.Config
	p       *config.Prompter
	actions Actions
}

// New returns a menu bound to cfg. Preferences answered in the menu update cfg.
func New(cfg *model.Config, p *config.Prompter, actions Actions) *Menu {
	return &Menu{cfg: cfg, p: p, actions: actions}
}

type item struct {
	label string
	run   func(m *Menu, ctx context.Context) error
	// ask is false for help screens, which return straight to the menu.
	ask bool
}

var items = map[string]item{
	"1": {"Download Track", func(m *Menu, ctx context.Context) error {
		return m.downloadPrompt(ctx, "Single Track Download", "Enter Spotify track url:- ")
	}, true},
	"2": {"Download Album", func(m *Menu, ctx context.Context) error {
		return m.downloadPrompt(ctx, "Download Album", "Enter Spotify album url:- ")
	}, true},
	"3": {"Download Playlist", func(m *Menu, ctx context.Context) error {
		return m.downloadPrompt(ctx, "Download Playlist", "What playlist would you like to download:- ")
	}, true},
	"4": {"Download from Text File", (*Menu).fromFile, true},
	"5": {"Search and Download Song", func(m *Menu, ctx context.Context) error {
		return m.downloadPrompt(ctx, "Search and Download", "What is the name of the song you're looking for: ")
	}, true},
	"6": {"Download User Playlists (Requires Spotify Account)", func(m *Menu, ctx context.Context) error {
		return m.account(ctx, model.AccountPlaylists, "User Playlist Download")
	}, true},
	"7": {"Download Liked Songs (Requires Spotify Account)", func(m *Menu, ctx context.Context) error {
		return m.account(ctx, model.AccountSaved, "Liked Songs Download")
	}, true},
	"8": {"Download Saved Albums (Requires Spotify Account)", func(m *Menu, ctx context.Context) error {
		return m.account(ctx, model.AccountAlbums, "Saved Albums Download")
	}, true},
	"9": {"Check/Install spotdl", func(m *Menu, ctx context.Context) error {
		return call(m.actions.Check, ctx)
	}, true},
	"10": {"Show spotdl Help", func(m *Menu, ctx context.Context) error {
		return call(m.actions.BackendHelp, ctx)
	}, false},
	"11": {"Show Program Info", func(m *Menu, _ context.Context) error {
		if m.actions.Info != nil {
			m.actions.Info()
		}
		return nil
	}, false},
}

func call(fn func(context.Context) error, ctx context.Context) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Display prints the option list.
func (m *Menu) Display() {
	w := m.p.Out()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s%s\n", ui.ColorBold, strings.Repeat("=", 72), ui.ColorReset)
	fmt.Fprintf(w, "%s%sTUNEGRAB INTERACTIVE DOWNLOADER%s\n", ui.ColorBold, ui.ColorCyan, ui.ColorReset)
	fmt.Fprintf(w, "%s%s%s\n", ui.ColorBold, strings.Repeat("=", 72), ui.ColorReset)
	fmt.Fprintln(w, "Select an option:")
	for i := 1; i <= len(items); i++ {
		key := fmt.Sprint(i)
		fmt.Fprintf(w, "%-4s%s\n", key+".", items[key].label)
	}
	fmt.Fprintf(w, "%-4s%s\n", choiceExit+".", "Exit")
	fmt.Fprintf(w, "%s%s%s\n", ui.ColorBold, strings.Repeat("=", 72), ui.ColorReset)
}

// Run loops until the user exits, input ends or ctx is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			m.p.Println("\n\nProgram interrupted by user. Goodbye!")
			return model.ErrCancelled
		}
		m.Display()
		choice, err := m.p.Ask("\nEnter your choice (1-12): ")
		if err != nil {
			return endOfInput(err)
		}
		if choice == choiceExit {
			m.p.Println(goodbye)
			return nil
		}
		it, ok := items[choice]
		if !ok {
			m.p.Println(invalidChoice)
			continue
		}

		if err := it.run(m, ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !errors.Is(err, model.ErrCancelled) {
				ui.PrintError(err.Error())
			}
		}
		if !it.ask || ctx.Err() != nil {
			continue
		}

		again, err := m.p.Confirm("\nDo you want to perform another operation? (y/n): ")
		if err != nil {
			return endOfInput(err)
		}
		if !again {
			m.p.Println(goodbye)
			return nil
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (m *Menu) heading(title string) {
	m.p.Println()
	ui.PrintSection(title)
}

func (m *Menu) downloadPrompt(ctx context.Context, title, question string) error {
	m.heading(title)
	target, err := m.p.Ask(question)
	if err != nil {
		return err
	}
	if target == "" {
		ui.PrintError("No URL provided")
		return nil
	}
	if err := config.PromptPreferences(m.cfg, m.p); err != nil {
		return err
	}
	if m.actions.Download == nil {
		return nil
	}
	return m.actions.Download(ctx, target)
}

func (m *Menu) fromFile(ctx context.Context) error {
	m.heading("Download from text file")
	path, err := m.p.Ask("Enter the path of the link file: ")
	if err != nil {
		return err
	}
	if path == "" {
		ui.PrintError("No file provided")
		return nil
	}
	exists, err := helpers.FileExists(path)
	if err != nil || !exists {
		ui.PrintError("File not found: " + path)
		return nil
	}
	if err := config.PromptPreferences(m.cfg, m.p); err != nil {
		return err
	}
	if m.actions.File == nil {
		return nil
	}
	return m.actions.File(ctx, path)
}

func (m *Menu) account(ctx context.Context, op, title string) error {
	m.heading(title)
	ui.PrintInfo("This requires a Spotify account; you will be redirected to Spotify for authorization")
	if err := config.PromptPreferences(m.cfg, m.p); err != nil {
		return err
	}
	if m.actions.Account == nil {
		return nil
	}
	return m.actions.Account(ctx, op)
}
