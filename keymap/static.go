package keymap

// usQwerty is the unshifted text of the main block on a US layout, by evdev
// keycode. It stands in when no X server is available.
var usQwerty = map[uint16]string{
	1: "\x1b",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	12: "-", 13: "=", 14: "\b", 15: "\t",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	26: "[", 27: "]", 28: "\r",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	39: ";", 40: "'", 41: "`", 43: "\\",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	51: ",", 52: ".", 53: "/", 55: "*", 57: " ",
	71: "7", 72: "8", 73: "9", 74: "-", 75: "4", 76: "5", 77: "6", 78: "+",
	79: "1", 80: "2", 81: "3", 82: "0", 83: ".",
	96: "\r", 98: "/", 111: "\x7f",
}

// Static returns the built-in US QWERTY keymap.
func Static() *Keymap {
	return &Keymap{source: "static", fallback: usQwerty}
}

// CodeForText returns the evdev keycode producing text on the static layout.
func CodeForText(text string) (uint16, bool) {
	for code, t := range usQwerty {
		if t == text && code < 71 {
			return code, true
		}
	}
	return 0, false
}
