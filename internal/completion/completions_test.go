package completion

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommand_Scripts(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "complete -F _tunegrab_completion tunegrab"},
		{"zsh", "#compdef tunegrab"},
		{"fish", "complete -c tunegrab"},
		{"PowerShell", "Register-ArgumentCompleter"},
		{"pwsh", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Command(&buf, []string{"completion", tt.shell}); err != nil {
				t.Fatalf("Command: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("%s script missing %q", tt.shell, tt.want)
			}
		})
	}
}

func TestCommand_UnsupportedShell(t *testing.T) {
	var buf bytes.Buffer
	if err := Command(&buf, []string{"completion", "tcsh"}); err == nil {
		t.Fatal("expected error for unsupported shell")
	}
}

func TestScripts_ListEveryCommand(t *testing.T) {
	for _, script := range []string{BashCompletion, ZshCompletion, FishCompletion, PowershellCompletion} {
		for _, cmd := range Commands {
			if !strings.Contains(script, cmd) {
				t.Errorf("script missing command %q", cmd)
			}
		}
	}
}
