//go:build !linux

package rawinput

import (
	"context"
	"errors"
	"fmt"

	"hotbind/keybind"
)

// EvdevHook is Linux only.
type EvdevHook struct{}

func NewEvdevHook() *EvdevHook { return &EvdevHook{} }

func (h *EvdevHook) Run(context.Context, func(Event), func()) error {
	return fmt.Errorf("%w: evdev is only available on Linux", keybind.ErrHookStart)
}

func DiagnoseEvdev() (string, error) {
	return "", errors.New("evdev is only available on Linux")
}
