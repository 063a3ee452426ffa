//go:build !windows

package runtime

import (
	"os"
	"os/signal"
	"syscall"
)

// detachSignals would kill a long batch when its terminal or an output
// pipe goes away.
var detachSignals = []os.Signal{syscall.SIGHUP, syscall.SIGPIPE}

// SetupSessionPersistence keeps the process running after its terminal
// closes, so batches started over ssh finish and save their link files.
func SetupSessionPersistence() {
	signal.Ignore(detachSignals...)
}
