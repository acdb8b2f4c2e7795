//go:build cgo && windows

package rawinput

import "golang.design/x/hotkey"

const modAlt = hotkey.ModAlt
