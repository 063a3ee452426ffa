package main

import (
	"fmt"
	"strings"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

const banner = `
 _                                      _
| |_ _   _ _ __   ___  __ _ _ __ __ _| |__
| __| | | | '_ \ / _ \/ _' | '__/ _' | '_ \
| |_| |_| | | | |  __/ (_| | | | (_| | |_) |
 \__|\__,_|_| |_|\___|\__, |_|  \__,_|_.__/
                      |___/`

func init() {
	// Wire the colored help text into model.Args.Description()
	model.ArgsDescriptionFunc = argsDescription
}

func argsDescription() string {
	var b strings.Builder

	heading := func(title string) {
		fmt.Fprintf(&b, "\n%s%s %s%s\n", ui.ColorBold, ui.BulletDiamond, title, ui.ColorReset)
		fmt.Fprintf(&b, "%s%s%s\n", ui.ColorCyan, strings.Repeat(ui.BoxHorizontal, 77), ui.ColorReset)
	}
	cmd := func(syntax, description string) {
		fmt.Fprintf(&b, "  %s%s%s %s%-30s%s %s\n", ui.ColorGreen, ui.BulletCircle, ui.ColorReset, ui.ColorCyan, syntax, ui.ColorReset, description)
	}
	example := func(syntax string) {
		fmt.Fprintf(&b, "  %s%s%s %s%s%s\n", ui.ColorYellow, ui.BulletArrow, ui.ColorReset, ui.ColorCyan, syntax, ui.ColorReset)
	}

	fmt.Fprintf(&b, "%s%s Download music from Spotify and YouTube%s\n", ui.ColorBold, ui.SymbolMusic, ui.ColorReset)

	heading("DOWNLOAD COMMANDS")
	cmd("<url> [url...]", "Download tracks, albums, playlists, artists or YouTube links and channels")
	cmd("<file.txt>", "Download every pending link of a link file and mark it")
	cmd("<file.m3u8>", "Download every link listed in a playlist file")
	cmd("file [path]", "Process the configured link file (default "+model.DefaultLinksFile+")")
	cmd("search <query>", "Search for a song and download the best match")
	cmd("saved", "Download your liked songs (Spotify login)")
	cmd("playlists", "Download all your playlists (Spotify login)")
	cmd("albums", "Download your saved albums (Spotify login)")
	cmd("watch [path]", "Re-run a link file whenever it changes")

	heading("TOOL COMMANDS")
	cmd("inspect <url>", "Preview the tracks behind a link without downloading")
	cmd("check", "Check and install spotdl, yt-dlp and ffmpeg")
	cmd("backend-help", "Show the spotdl help text")
	cmd("info", "Show program information")
	cmd("config init|show", "Create or show the configuration")
	cmd("completion <shell>", "Generate shell completion (bash, zsh, fish, powershell)")

	heading("LINK FILE FORMAT")
	cmd("https://open.spotify.com/...", "Pending link")
	cmd("https://... # DOWNLOADED", "Done, skipped on the next run")
	cmd("https://... # FAILED", "Retried unless --skip-failed")
	cmd("# comment", "Kept as is")

	heading("EXAMPLES")
	example("tunegrab https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy")
	example("tunegrab links/spotify_links.txt -j 3 --staging /tmp/tg")
	example("tunegrab search \"daft punk one more time\" -f flac --lyrics synced")
	example("tunegrab https://music.youtube.com/playlist?list=PL123 --zip")
	example("tunegrab https://www.youtube.com/@LofiGirl")
	example("tunegrab watch links/spotify_links.txt")

	fmt.Fprintf(&b, "\n  %s%s%s Run without arguments on a terminal for the interactive menu.\n",
		ui.ColorCyan, ui.BulletArrow, ui.ColorReset)

	return b.String()
}

func printUsage() {
	fmt.Println(argsDescription())
	fmt.Printf("Run %stunegrab --help%s for all flags.\n", ui.ColorBold, ui.ColorReset)
}

func programInfo() {
	line := strings.Repeat("=", 80)
	fmt.Println(line)
	fmt.Println("tunegrab - Spotify and YouTube music downloader")
	fmt.Println(line)
	fmt.Println("Downloads albums, playlists and single tracks through spotdl and yt-dlp,")
	fmt.Println("retrying failed links and keeping track of progress in your link files.")
	fmt.Println()
	ui.PrintSection("Basic functions (no account needed)")
	ui.PrintList([]string{
		"Download Track / Album / Playlist - download a single link",
		"Download from Text File - process a link file and mark each line",
		"Search and Download Song - find a song by name",
	}, ui.ColorGreen)
	ui.PrintSection("Account functions (Spotify login)")
	ui.PrintList([]string{
		"Download User Playlists - every playlist in your library",
		"Download Liked Songs - your liked songs",
		"Download Saved Albums - your saved albums",
	}, ui.ColorGreen)
	ui.PrintSection("Help functions")
	ui.PrintList([]string{
		"Program Info - this screen",
		"Check/Install spotdl - install missing backends",
		"Show spotdl Help - spotdl's own options",
	}, ui.ColorGreen)
	fmt.Println(line)
}
