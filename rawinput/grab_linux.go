//go:build cgo && linux

package rawinput

import "golang.design/x/hotkey"

// Alt is Mod1 on X11.
const modAlt = hotkey.Mod1
