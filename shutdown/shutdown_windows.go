//go:build windows

// Package shutdown registers the signals that end a session.
package shutdown

import (
	"os"
	"os/signal"
)

// Signals lists what Notify subscribes to on this platform.
var Signals = []os.Signal{os.Interrupt}

func Notify(ch chan os.Signal) {
	signal.Notify(ch, Signals...)
}

// Stop undoes Notify for ch.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
