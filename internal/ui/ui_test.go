package ui

import (
	"strings"
	"testing"

	"github.com/jmagar/tunegrab/internal/testutil"
)

func plainColors(t *testing.T) {
	t.Helper()
	t.Cleanup(InitColorPalette)
	t.Setenv("NO_COLOR", "1")
	InitColorPalette()
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"漢字漢字漢字", 5, "漢字..."},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis_KeepsLeadingColor(t *testing.T) {
	got := TruncateWithEllipsis("\033[92mgreen text here\033[0m", 8)
	if !strings.HasPrefix(got, "\033[92m") || StripAnsiCodes(got) != "green..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestPadding(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Fatalf("PadRight = %q", got)
	}
	if got := PadLeft("ab", 4); got != "  ab" {
		t.Fatalf("PadLeft = %q", got)
	}
	if got := PadCenter("ab", 5); got != " ab  " {
		t.Fatalf("PadCenter = %q", got)
	}
	if got := PadRight("\033[1mab\033[0m", 3); VisibleLength(got) != 3 {
		t.Fatalf("PadRight should ignore color codes, got %q", got)
	}
}

func TestTable_Render(t *testing.T) {
	plainColors(t)
	table := NewTable([]TableColumn{
		{Header: "#", Width: 3, Align: "right"},
		{Header: "Title", Width: 10},
	})
	table.AddRow("1", "One More Time")
	table.AddRow("12")

	lines := strings.Split(strings.TrimRight(table.Render(80), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[2] != "   1 │ One Mor... " {
		t.Fatalf("unexpected first row: %q", lines[2])
	}
	if lines[3] != "  12 │            " {
		t.Fatalf("short rows should be padded: %q", lines[3])
	}
}

func TestTable_FitShrinksWideColumns(t *testing.T) {
	table := NewTable([]TableColumn{{Header: "A", Width: 100}, {Header: "B", Width: 100}})
	widths := table.fit(61)
	if widths[0]+widths[1] > 61-1-6 {
		t.Fatalf("columns not shrunk: %v", widths)
	}
}

func TestProgressLineIsClosedBeforeMessages(t *testing.T) {
	plainColors(t)
	out := testutil.CaptureStdout(t, func() {
		PrintDownloadProgress(50, "1 MB/s", "5 MB", "10 MB")
		PrintSuccess("done")
		EndProgress()
	})
	if !strings.Contains(out, "50%") {
		t.Fatalf("missing progress output: %q", out)
	}
	if !strings.Contains(out, "\n✓ done\n") {
		t.Fatalf("success message should start on a fresh line: %q", out)
	}
	if strings.HasSuffix(out, "\r\033[K") {
		t.Fatalf("EndProgress should do nothing after the line was closed: %q", out)
	}
}

func TestInitColorPalette_Plain(t *testing.T) {
	plainColors(t)
	if ActiveTheme != "plain" || ColorRed != "" || ColorReset != "" {
		t.Fatalf("expected plain palette, got theme %q", ActiveTheme)
	}
}

func TestDescribeBitrate(t *testing.T) {
	tests := map[string]string{
		"auto":    "Auto (source bitrate)",
		"disable": "Disabled (no re-encode)",
		"":        "Default (320k)",
		"128K":    "128kbps",
	}
	for in, want := range tests {
		if got := DescribeBitrate(in); got != want {
			t.Errorf("DescribeBitrate(%q) = %q, want %q", in, got, want)
		}
	}
}
