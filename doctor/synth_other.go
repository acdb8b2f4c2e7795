//go:build windows || (darwin && cgo)

package doctor

import (
	"fmt"

	"github.com/micmonay/keybd_event"

	"hotbind/keybind"
)

var virtualKeys = map[string]int{
	"a": keybd_event.VK_A, "b": keybd_event.VK_B, "c": keybd_event.VK_C, "d": keybd_event.VK_D,
	"e": keybd_event.VK_E, "f": keybd_event.VK_F, "g": keybd_event.VK_G, "h": keybd_event.VK_H,
	"i": keybd_event.VK_I, "j": keybd_event.VK_J, "k": keybd_event.VK_K, "l": keybd_event.VK_L,
	"m": keybd_event.VK_M, "n": keybd_event.VK_N, "o": keybd_event.VK_O, "p": keybd_event.VK_P,
	"q": keybd_event.VK_Q, "r": keybd_event.VK_R, "s": keybd_event.VK_S, "t": keybd_event.VK_T,
	"u": keybd_event.VK_U, "v": keybd_event.VK_V, "w": keybd_event.VK_W, "x": keybd_event.VK_X,
	"y": keybd_event.VK_Y, "z": keybd_event.VK_Z,
	" ": keybd_event.VK_SPACE,
}

func synthesize(id keybind.Identity) error {
	vk, ok := virtualKeys[id.Key]
	if !ok {
		return fmt.Errorf("cannot synthesize key %q", id.Key)
	}
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(vk)
	kb.HasCTRL(id.Ctrl)
	kb.HasSHIFT(id.Shift)
	kb.HasALT(id.Alt)
	return kb.Launching()
}
