//go:build !cgo || !(linux || darwin || windows)

package rawinput

import (
	"context"
	"fmt"

	"hotbind/keybind"
)

// GrabHook needs cgo; this build cannot grab keys.
type GrabHook struct{}

func NewGrabHook() *GrabHook { return &GrabHook{} }

func (g *GrabHook) Run(context.Context, func(Event), func()) error {
	return fmt.Errorf("%w: built without hotkey grabs (cgo disabled)", keybind.ErrHookStart)
}

func (g *GrabHook) Grab(keybind.Identity) error { return keybind.ErrUnsupported }

func (g *GrabHook) Release(keybind.Identity) {}

func GrabAvailable() bool { return false }
