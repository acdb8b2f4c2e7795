package rawinput

import "hotbind/keybind"

// libuiohook virtual keycodes are AT set 1 scancodes, which match evdev
// keycodes for the main block. Extended keys carry a prefix byte.
var extendedScancodes = map[uint16]uint16{
	0x0e1c: 96,  // KP Enter
	0x0e1d: 97,  // Right Ctrl
	0x0e35: 98,  // KP Divide
	0x0e38: 100, // Right Alt
	0x0e47: 102, // Home
	0xe048: 103, // Up
	0x0e49: 104, // Page Up
	0xe04b: 105, // Left
	0xe04d: 106, // Right
	0x0e4f: 107, // End
	0xe050: 108, // Down
	0x0e51: 109, // Page Down
	0x0e52: 110, // Insert
	0x0e53: 111, // Delete
	0x0e5b: 125, // Left Meta
	0x0e5c: 126, // Right Meta
}

// EvdevCode maps a libuiohook virtual keycode to an evdev keycode; unknown
// extended codes map to 0.
func EvdevCode(vc uint16) uint16 {
	if vc&0xff00 == 0 {
		return vc
	}
	return extendedScancodes[vc]
}

// libuiohook modifier mask bits.
const (
	uioShiftL = 1 << 0
	uioCtrlL  = 1 << 1
	uioAltL   = 1 << 3
	uioShiftR = 1 << 4
	uioCtrlR  = 1 << 5
	uioAltR   = 1 << 7
)

// ModifiersFromUIOHook folds libuiohook's left/right mask into Modifiers.
func ModifiersFromUIOHook(mask uint16) keybind.Modifiers {
	var m keybind.Modifiers
	if mask&(uioShiftL|uioShiftR) != 0 {
		m |= keybind.ModShift
	}
	if mask&(uioCtrlL|uioCtrlR) != 0 {
		m |= keybind.ModCtrl
	}
	if mask&(uioAltL|uioAltR) != 0 {
		m |= keybind.ModAlt
	}
	return m
}
