//go:build !(linux && cgo) && !windows && !(darwin && cgo)

package doctor

import (
	"errors"

	"hotbind/keybind"
)

func synthesize(keybind.Identity) error {
	return errors.New("synthesized key presses are not supported on this platform")
}
