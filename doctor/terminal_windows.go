//go:build windows

package doctor

import (
	"os"
	"os/signal"

	"golang.org/x/term"
)

func resetTerminal() {
	// Not needed on Windows
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
