package keymap

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// FromX11 reads the core keyboard mapping from the X server on display
// (empty means $DISPLAY). The connection is closed before returning; only
// the compiled table is kept.
func FromX11(display string) (*Keymap, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connecting to X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	first := setup.MinKeycode
	count := int(setup.MaxKeycode) - int(setup.MinKeycode) + 1
	if count <= 0 || count > 255 {
		return nil, fmt.Errorf("invalid keycode range %d-%d", setup.MinKeycode, setup.MaxKeycode)
	}

	reply, err := xproto.GetKeyboardMapping(conn, first, byte(count)).Reply()
	if err != nil {
		return nil, fmt.Errorf("reading keyboard mapping: %w", err)
	}
	if reply.KeysymsPerKeycode == 0 {
		return nil, fmt.Errorf("empty keyboard mapping")
	}

	syms := make([]uint32, len(reply.Keysyms))
	for i, s := range reply.Keysyms {
		syms[i] = uint32(s)
	}
	return fromTable("x11", int(first), int(reply.KeysymsPerKeycode), syms), nil
}

func fromTable(source string, minCode, perCode int, syms []uint32) *Keymap {
	return &Keymap{
		source:  source,
		minCode: minCode,
		perCode: perCode,
		keysyms: syms,
	}
}

// Load returns the X11 keymap for display, or the static table when no X
// server can be reached. The error reports why X11 was not used.
func Load(display string) (*Keymap, error) {
	km, err := FromX11(display)
	if err != nil {
		return Static(), err
	}
	return km, nil
}
