//go:build cgo && (linux || darwin || windows)

package rawinput

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	hook "github.com/robotn/gohook"

	"hotbind/keybind"
)

// libuiohook is process-global; only one UIOHook may run at a time.
var uiohookRunning atomic.Bool

// UIOHook listens to every key event through libuiohook.
type UIOHook struct{}

func NewUIOHook() *UIOHook { return &UIOHook{} }

func (h *UIOHook) Run(ctx context.Context, dispatch func(Event), ready func()) error {
	if !uiohookRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: libuiohook already running", keybind.ErrHookStart)
	}
	defer uiohookRunning.Store(false)

	events := hook.Start()
	defer hook.End()

	started := false
	markStarted := func() {
		if !started {
			started = true
			ready()
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if !started {
					return fmt.Errorf("%w: libuiohook event stream closed", keybind.ErrHookStart)
				}
				return errors.New("libuiohook event stream closed")
			}
			switch ev.Kind {
			case hook.HookEnabled:
				markStarted()
			case hook.HookDisabled:
				if !started {
					return fmt.Errorf("%w: libuiohook disabled before start", keybind.ErrHookStart)
				}
				return errors.New("libuiohook disabled")
			case hook.KeyHold:
				// KeyHold is libuiohook's EVENT_KEY_PRESSED, repeats included
				markStarted()
				dispatch(Event{Code: EvdevCode(ev.Keycode), Mask: ModifiersFromUIOHook(ev.Mask), Pressed: true})
			case hook.KeyUp:
				markStarted()
				dispatch(Event{Code: EvdevCode(ev.Keycode), Mask: ModifiersFromUIOHook(ev.Mask)})
			}
		}
	}
}

// UIOHookAvailable reports whether this build includes libuiohook.
func UIOHookAvailable() bool { return true }
