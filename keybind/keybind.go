// Package keybind holds the shortcut identity model shared by every backend:
// the parser for "ctrl+alt+m" style strings, the id registry and triggers.
package keybind

import (
	"fmt"
	"strings"
)

// ID is the application-chosen number a shortcut is registered under.
type ID uint32

// Identity is the normalized form of a shortcut. Key is the base key text,
// empty for modifier-only shortcuts.
type Identity struct {
	Shift bool
	Alt   bool
	Ctrl  bool
	Key   string
}

// Modifiers is the modifier mask carried by raw keyboard events.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

func (m Modifiers) Has(mod Modifiers) bool { return m&mod != 0 }

// FromMask builds the identity a raw key event resolves to.
func FromMask(mask Modifiers, key string) Identity {
	return Identity{
		Shift: mask.Has(ModShift),
		Alt:   mask.Has(ModAlt),
		Ctrl:  mask.Has(ModCtrl),
		Key:   key,
	}
}

// Mask returns the modifier flags of the identity as a mask.
func (id Identity) Mask() Modifiers {
	var m Modifiers
	if id.Shift {
		m |= ModShift
	}
	if id.Alt {
		m |= ModAlt
	}
	if id.Ctrl {
		m |= ModCtrl
	}
	return m
}

// String renders the identity in canonical order, e.g. "shift+ctrl+a".
func (id Identity) String() string {
	parts := make([]string, 0, 4)
	if id.Shift {
		parts = append(parts, "shift")
	}
	if id.Alt {
		parts = append(parts, "alt")
	}
	if id.Ctrl {
		parts = append(parts, "ctrl")
	}
	if id.Key != "" {
		parts = append(parts, id.Key)
	}
	return strings.Join(parts, "+")
}

const (
	tokenShift = "shift"
	tokenAlt   = "alt"
	tokenCtrl  = "ctrl"
)

// Parse converts a '+' separated shortcut into an Identity. Modifier
// keywords are matched case-sensitively; any other token becomes the base
// key, the last one winning. An empty token counts as a base key, so a
// trailing '+' leaves the identity modifier-only.
func Parse(spec string) Identity {
	id, _ := parse(spec)
	return id
}

// ParseStrict is Parse, but rejects shortcuts naming more than one base key.
func ParseStrict(spec string) (Identity, error) {
	id, keys := parse(spec)
	if keys > 1 {
		return id, fmt.Errorf("%w: %q", ErrMultipleKeys, spec)
	}
	return id, nil
}

func parse(spec string) (Identity, int) {
	var id Identity
	keys := 0
	for _, tok := range strings.Split(spec, "+") {
		switch tok {
		case tokenShift:
			id.Shift = true
		case tokenAlt:
			id.Alt = true
		case tokenCtrl:
			id.Ctrl = true
		default:
			id.Key = tok
			keys++
		}
	}
	return id, keys
}
