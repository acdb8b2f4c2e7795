// Package keymap translates hardware keycodes into the character text used
// by shortcut identities, following the system keyboard layout.
//
// Keycodes are Linux evdev codes; the X server numbers the same keys eight
// higher. Only the first layout (group) of the keymap is consulted.
package keymap

// x11Offset is the distance between evdev and X11 keycodes.
const x11Offset = 8

// Keymap is a compiled, read-only keycode to keysym table.
type Keymap struct {
	source   string
	minCode  int
	perCode  int
	keysyms  []uint32
	fallback map[uint16]string
}

// Source names where the keymap came from ("x11" or "static").
func (k *Keymap) Source() string { return k.source }

// keysym returns the base level keysym of the first group for an X keycode.
func (k *Keymap) keysym(xcode int) uint32 {
	if k.perCode == 0 || xcode < k.minCode {
		return 0
	}
	i := (xcode - k.minCode) * k.perCode
	if i >= len(k.keysyms) {
		return 0
	}
	sym := k.keysyms[i]
	// A lone uppercase letter stands for the lower/upper pair.
	if sym >= 'A' && sym <= 'Z' && (k.perCode == 1 || k.keysyms[i+1] == 0) {
		sym += 'a' - 'A'
	}
	return sym
}

// Text resolves an evdev keycode to its unshifted character text. Keys with
// no textual form (modifiers, function keys) resolve to "".
func (k *Keymap) Text(code uint16) string {
	if k.fallback != nil {
		return k.fallback[code]
	}
	return KeysymText(k.keysym(int(code) + x11Offset))
}

// State caches resolved keycodes for one hook goroutine. It is not safe for
// concurrent use.
type State struct {
	km    *Keymap
	cache map[uint16]string
}

func (k *Keymap) NewState() *State {
	return &State{km: k, cache: make(map[uint16]string)}
}

func (s *State) Text(code uint16) string {
	if text, ok := s.cache[code]; ok {
		return text
	}
	text := s.km.Text(code)
	s.cache[code] = text
	return text
}
