package keymap

// Non-printable keysyms that still have a text form.
var specialKeysyms = map[uint32]string{
	0xff08: "\b",   // BackSpace
	0xff09: "\t",   // Tab
	0xff0d: "\r",   // Return
	0xff1b: "\x1b", // Escape
	0xffff: "\x7f", // Delete
	0xff80: " ",    // KP_Space
	0xff89: "\t",   // KP_Tab
	0xff8d: "\r",   // KP_Enter
	0xffaa: "*",    // KP_Multiply
	0xffab: "+",    // KP_Add
	0xffac: ",",    // KP_Separator
	0xffad: "-",    // KP_Subtract
	0xffae: ".",    // KP_Decimal
	0xffaf: "/",    // KP_Divide
	0xffbd: "=",    // KP_Equal
}

// KeysymText converts a keysym to UTF-8 text. Latin-1 keysyms map to their
// code point and 0x01xxxxxx keysyms carry the code point directly; other
// legacy keysym ranges resolve to "".
func KeysymText(sym uint32) string {
	switch {
	case sym >= 0x20 && sym <= 0x7e, sym >= 0xa0 && sym <= 0xff:
		return string(rune(sym))
	case sym >= 0x01000100 && sym <= 0x0110ffff:
		return string(rune(sym - 0x01000000))
	case sym >= 0xffb0 && sym <= 0xffb9: // KP_0..KP_9
		return string(rune('0' + sym - 0xffb0))
	}
	return specialKeysyms[sym]
}
