package ui

import (
	"os"
	"strings"
)

// Colors in use. Empty strings when colors are disabled.
var (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorPurple = "\033[95m"
	ColorCyan   = "\033[96m"
	ColorBold   = "\033[1m"

	// ActiveTheme is the palette picked by InitColorPalette.
	ActiveTheme = "default"
)

// Message and link-kind symbols.
var (
	SymbolCheck    = "✓"
	SymbolCross    = "✗"
	SymbolMusic    = "♪"
	SymbolUpload   = "⬆"
	SymbolDownload = "⬇"
	SymbolInfo     = "ℹ"
	SymbolWarning  = "⚠"

	SymbolAudio    = "🎵"
	SymbolAlbum    = "💿"
	SymbolPlaylist = "📜"
	SymbolArtist   = "🎤"
	SymbolSearch   = "🔎"
)

// palette holds red, green, yellow, blue, purple and cyan for one depth.
type palette [6]string

type theme struct {
	truecolor palette
	color256  palette
	basic     palette
}

var themes = map[string]theme{
	"default": {
		truecolor: palette{
			"\033[1;38;2;237;106;94m", "\033[1;38;2;29;185;84m", "\033[1;38;2;245;200;90m",
			"\033[1;38;2;120;170;255m", "\033[1;38;2;190;140;255m", "\033[1;38;2;110;225;230m",
		},
		color256: palette{
			"\033[1;38;5;203m", "\033[1;38;5;35m", "\033[1;38;5;221m",
			"\033[1;38;5;111m", "\033[1;38;5;141m", "\033[1;38;5;116m",
		},
		basic: palette{"\033[91m", "\033[92m", "\033[93m", "\033[94m", "\033[95m", "\033[96m"},
	},
	"vivid": {
		truecolor: palette{
			"\033[1;38;2;255;76;102m", "\033[1;38;2;80;250;123m", "\033[1;38;2;255;221;87m",
			"\033[1;38;2;110;196;255m", "\033[1;38;2;215;130;255m", "\033[1;38;2;0;245;255m",
		},
		color256: palette{
			"\033[1;38;5;203m", "\033[1;38;5;84m", "\033[1;38;5;227m",
			"\033[1;38;5;81m", "\033[1;38;5;177m", "\033[1;38;5;51m",
		},
		basic: palette{"\033[1;91m", "\033[1;92m", "\033[1;93m", "\033[1;94m", "\033[1;95m", "\033[1;96m"},
	},
}

func init() {
	InitColorPalette()
}

// InitColorPalette applies TUNEGRAB_THEME (default, vivid or plain).
// NO_COLOR forces plain.
func InitColorPalette() {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("TUNEGRAB_THEME")))
	if name == "" {
		name = "default"
	}
	if os.Getenv("NO_COLOR") != "" {
		name = "plain"
	}
	ActiveTheme = name

	t, ok := themes[name]
	if !ok {
		setPlain()
		return
	}
	ColorReset, ColorBold = "\033[0m", "\033[1m"
	switch {
	case SupportsTruecolor():
		setPalette(t.truecolor)
	case Supports256Color():
		setPalette(t.color256)
	default:
		setPalette(t.basic)
	}
}

func setPalette(p palette) {
	ColorRed, ColorGreen, ColorYellow, ColorBlue, ColorPurple, ColorCyan = p[0], p[1], p[2], p[3], p[4], p[5]
}

func setPlain() {
	ActiveTheme = "plain"
	ColorReset, ColorBold = "", ""
	setPalette(palette{})
}

// SupportsTruecolor reports whether the terminal advertises 24-bit color.
func SupportsTruecolor() bool {
	for _, v := range []string{os.Getenv("COLORTERM"), os.Getenv("TERM")} {
		v = strings.ToLower(v)
		if strings.Contains(v, "truecolor") || strings.Contains(v, "24bit") {
			return true
		}
	}
	return false
}

// Supports256Color reports whether TERM advertises 256 colors.
func Supports256Color() bool {
	return strings.Contains(strings.ToLower(os.Getenv("TERM")), "256color")
}
