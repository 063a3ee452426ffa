package ui

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// Drawing characters.
const (
	BoxHorizontal       = "─"
	BoxVertical         = "│"
	BoxDoubleHorizontal = "═"

	BulletCircle  = "•"
	BulletArrow   = "▸"
	BulletDiamond = "◆"
)

// AnsiRegex matches SGR escape sequences.
var AnsiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const (
	defaultTermWidth  = 80
	termWidthCacheTTL = 500 * time.Millisecond
	progressBarWidth  = 30
)

var (
	termWidthMu     sync.Mutex
	cachedTermWidth int
	termWidthAt     time.Time

	// progressMu guards progressOpen, which is set while a progress line
	// is drawn without a trailing newline.
	progressMu   sync.Mutex
	progressOpen bool
)

// GetTermWidth returns the width of stdout, or 80 when it is not a terminal.
// The value is cached briefly because progress redraws ask for it often.
func GetTermWidth() int {
	termWidthMu.Lock()
	defer termWidthMu.Unlock()
	if cachedTermWidth > 0 && time.Since(termWidthAt) <= termWidthCacheTTL {
		return cachedTermWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = defaultTermWidth
	}
	cachedTermWidth, termWidthAt = width, time.Now()
	return width
}

// StripAnsiCodes removes color codes from s.
func StripAnsiCodes(s string) string {
	return AnsiRegex.ReplaceAllString(s, "")
}

// VisibleLength counts the runes of s that reach the screen.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis shortens s to maxLen visible runes. Truncated text
// loses its inner color codes but keeps the leading one.
func TruncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if VisibleLength(s) <= maxLen {
		return s
	}
	runes := []rune(StripAnsiCodes(s))
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	out := string(runes[:maxLen-3]) + "..."
	if lead := AnsiRegex.FindString(s); lead != "" && strings.HasPrefix(s, lead) {
		return lead + out + ColorReset
	}
	return out
}

// PadRight left-aligns s in width columns.
func PadRight(s string, width int) string {
	if n := VisibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PadLeft right-aligns s in width columns.
func PadLeft(s string, width int) string {
	if n := VisibleLength(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// PadCenter centers s in width columns.
func PadCenter(s string, width int) string {
	n := VisibleLength(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// PrintHeader prints title between double rules.
func PrintHeader(title string) {
	closeProgress()
	width := min(GetTermWidth(), 100) - 1
	title = TruncateWithEllipsis(title, width-4)
	rule := ColorCyan + strings.Repeat(BoxDoubleHorizontal, width) + ColorReset
	fmt.Printf("\n%s\n%s%s%s\n%s\n\n", rule, ColorBold, PadCenter(title, width), ColorReset, rule)
}

// PrintSection prints a section title with underline.
func PrintSection(title string) {
	closeProgress()
	fmt.Printf("\n%s%s %s%s\n", ColorBold, BulletDiamond, title, ColorReset)
	fmt.Printf("%s%s%s\n", ColorCyan, strings.Repeat(BoxHorizontal, VisibleLength(title)+2), ColorReset)
}

// PrintList prints items as a bullet list.
func PrintList(items []string, color string) {
	closeProgress()
	for _, item := range items {
		fmt.Printf("  %s%s%s %s\n", color, BulletCircle, ColorReset, item)
	}
}

// PrintKeyValue prints an aligned "key: value" line.
func PrintKeyValue(key, value, valueColor string) {
	closeProgress()
	if room := GetTermWidth() - 26; room > 10 {
		value = TruncateWithEllipsis(value, room)
	}
	fmt.Printf("  %s%-20s%s %s%s%s\n", ColorCyan, key+":", ColorReset, valueColor, value, ColorReset)
}

// RenderProgress redraws the current line with a progress bar.
func RenderProgress(label string, percentage int, speed, done, total, fillColor string) {
	percentage = max(0, min(percentage, 100))
	barWidth := progressBarWidth
	if GetTermWidth() < 80 {
		barWidth /= 2
	}
	filled := percentage * barWidth / 100

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s %s%s%s%s %3d%%", ColorBold, label, ColorReset,
		fillColor, strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), ColorReset, percentage)
	if speed != "" {
		b.WriteString(" @ " + speed)
	}
	if done != "" || total != "" {
		fmt.Fprintf(&b, ", %s/%s", done, total)
	}

	progressMu.Lock()
	fmt.Printf("\r\033[K%s", TruncateWithEllipsis(b.String(), GetTermWidth()-1))
	progressOpen = true
	progressMu.Unlock()
}

// PrintDownloadProgress renders backend download progress.
func PrintDownloadProgress(percentage int, speed, downloaded, total string) {
	RenderProgress("DL", percentage, speed, downloaded, total, ColorGreen)
}

// PrintUploadProgress renders rclone upload progress.
func PrintUploadProgress(percentage int, speed, uploaded, total string) {
	RenderProgress("UP", percentage, speed, uploaded, total, ColorPurple)
}

// EndProgress clears an open progress line.
func EndProgress() {
	progressMu.Lock()
	defer progressMu.Unlock()
	if progressOpen {
		fmt.Print("\r\033[K")
		progressOpen = false
	}
}

// closeProgress ends an open progress line with a newline so the next
// message does not overwrite it.
func closeProgress() {
	progressMu.Lock()
	defer progressMu.Unlock()
	if progressOpen {
		fmt.Println()
		progressOpen = false
	}
}
