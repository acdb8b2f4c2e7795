// Package hotkey selects and drives the global hotkey backend: the desktop
// portal where it is wanted and available, raw keyboard input otherwise.
package hotkey

import (
	"context"
	"os"
	"time"

	"hotbind/keybind"
	"hotbind/portal"
)

// Backend is an active hotkey backend.
type Backend interface {
	Name() string
	Register(ctx context.Context, spec string, id keybind.ID) error
	Unregister(ctx context.Context, id keybind.ID) error
	Close() error
}

// Kind identifies the backend an engine ended up with.
type Kind int32

const (
	KindNone Kind = iota
	KindPortal
	KindRawInput
)

func (k Kind) String() string {
	switch k {
	case KindPortal:
		return "portal"
	case KindRawInput:
		return "raw-input"
	default:
		return "none"
	}
}

// Handles are optional native window handles passed to the portal.
type Handles = portal.Handles

// Raw hook names accepted in Config.RawHook.
const (
	HookUIOHook = "uiohook"
	HookEvdev   = "evdev"
	HookGrab    = "grab"
)

type Config struct {
	// PreferPortal asks for the portal even outside Wayland.
	PreferPortal bool
	Wayland      bool
	RawHook      string
	// Display is the X display the keymap is read from. Empty uses $DISPLAY.
	Display       string
	TriggerBuffer int
	Portal        portal.Config
}

const (
	envWayland   = "WAYLAND_DISPLAY"
	envUsePortal = "HOTBIND_USE_XDG_PORTAL"
	envDisplay   = "DISPLAY"
)

// DetectEnvironment fills a Config from the session environment.
func DetectEnvironment() Config {
	_, usePortal := os.LookupEnv(envUsePortal)
	return Config{
		PreferPortal: usePortal,
		Wayland:      os.Getenv(envWayland) != "",
		RawHook:      HookUIOHook,
		Display:      os.Getenv(envDisplay),
		Portal: portal.Config{
			RequestTimeout: 10 * time.Second,
			BindTimeout:    2 * time.Minute,
		},
	}
}

func (c Config) wantsPortal() bool { return c.Wayland || c.PreferPortal }
