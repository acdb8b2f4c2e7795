//go:build cgo && darwin

package rawinput

import "golang.design/x/hotkey"

const modAlt = hotkey.ModOption
