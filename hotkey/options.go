package hotkey

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"hotbind/keybind"
	"hotbind/keymap"
	"hotbind/portal"
	"hotbind/rawinput"
)

// PortalStarter opens a portal session bound to reg and emit.
type PortalStarter func(ctx context.Context, cfg portal.Config, h Handles, reg *keybind.Registry, emit keybind.Emitter, log zerolog.Logger) (Backend, error)

type Option func(*Engine)

func WithPortalStarter(s PortalStarter) Option {
	return func(e *Engine) { e.startPortal = s }
}

// WithHook replaces the raw hook named by Config.RawHook.
func WithHook(h rawinput.Hook) Option {
	return func(e *Engine) { e.hook = h }
}

func WithKeymapLoader(l rawinput.KeymapLoader) Option {
	return func(e *Engine) { e.loadKeymap = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func openPortal(ctx context.Context, cfg portal.Config, h Handles, reg *keybind.Registry, emit keybind.Emitter, log zerolog.Logger) (Backend, error) {
	b, err := portal.Open(ctx, cfg, h, reg, emit, log)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func newHook(name string) (rawinput.Hook, error) {
	switch name {
	case "", HookUIOHook:
		return rawinput.NewUIOHook(), nil
	case HookEvdev:
		return rawinput.NewEvdevHook(), nil
	case HookGrab:
		return rawinput.NewGrabHook(), nil
	default:
		return nil, fmt.Errorf("unknown raw hook %q", name)
	}
}

func keymapLoader(display string) rawinput.KeymapLoader {
	return func() (*keymap.Keymap, error) { return keymap.Load(display) }
}
