//go:build linux && cgo

package doctor

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"hotbind/keybind"
	"hotbind/keymap"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initKeyBonding() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
		// uinput devices need a moment before the compositor sees them.
		time.Sleep(2 * time.Second)
	})
	return kbErr
}

// synthesize presses and releases id through a uinput virtual keyboard.
// keybd_event key codes on Linux are evdev codes.
func synthesize(id keybind.Identity) error {
	code, ok := keymap.CodeForText(id.Key)
	if !ok {
		return fmt.Errorf("no key produces %q on the built-in layout", id.Key)
	}
	if err := initKeyBonding(); err != nil {
		return fmt.Errorf("uinput unavailable: %w", err)
	}
	kb.Clear()
	kb.SetKeys(int(code))
	kb.HasCTRL(id.Ctrl)
	kb.HasSHIFT(id.Shift)
	kb.HasALT(id.Alt)
	return kb.Launching()
}
