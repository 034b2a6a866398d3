//go:build windows

package doctor

import (
	"os"
	"os/signal"
)

func resetTerminal() {}

// setupInterruptHandler runs cleanup (silencing any test tone) before exiting.
func setupInterruptHandler(cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cleanup()
		println("\nInterrupted")
		os.Exit(1)
	}()
}
