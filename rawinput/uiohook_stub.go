//go:build !cgo || !(linux || darwin || windows)

package rawinput

import (
	"context"
	"fmt"

	"hotbind/keybind"
)

// UIOHook needs cgo; this build always fails to start it.
type UIOHook struct{}

func NewUIOHook() *UIOHook { return &UIOHook{} }

func (h *UIOHook) Run(context.Context, func(Event), func()) error {
	return fmt.Errorf("%w: built without libuiohook (cgo disabled)", keybind.ErrHookStart)
}

func UIOHookAvailable() bool { return false }
