//go:build !windows

// Package shutdown registers the signals that end a session. A closed
// terminal (SIGHUP) counts too, so a ramping tone is never left playing.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Signals lists what Notify subscribes to on this platform.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

func Notify(ch chan os.Signal) {
	signal.Notify(ch, Signals...)
}

// Stop undoes Notify for ch.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
