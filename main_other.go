//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The grab hook needs the main thread for its event loop on macOS.
func main() {
	mainthread.Init(execute)
}
