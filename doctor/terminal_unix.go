//go:build !windows

package doctor

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

func resetTerminal() {
	if !isTerminal() {
		return
	}
	exec.Command("stty", "sane").Run()
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
