//go:build !windows

package doctor

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

func resetTerminal() {
	exec.Command("stty", "sane").Run()
}

// setupInterruptHandler runs cleanup (silencing any test tone) before exiting.
func setupInterruptHandler(cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cleanup()
		println("\nInterrupted")
		os.Exit(1)
	}()
}
