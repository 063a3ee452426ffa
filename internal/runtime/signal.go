// Package runtime holds process-level concerns: signal handling and
// terminal detection.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/jmagar/tunegrab/internal/ui"
)

// ForceExitCode is used when a second interrupt arrives during shutdown.
const ForceExitCode = 130

// SignalContext returns a context cancelled on the first SIGINT or SIGTERM.
// A second signal exits immediately.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Println("")
			ui.PrintWarning("Cancel requested. Finishing the current step... (press Ctrl+C again to force quit)")
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}
		select {
		case <-sigCh:
			os.Exit(ForceExitCode)
		case <-parent.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
