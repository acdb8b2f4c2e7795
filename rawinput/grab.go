//go:build cgo && (linux || darwin || windows)

package rawinput

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"hotbind/keybind"
)

// GrabHook registers each shortcut with the platform hotkey API
// (XGrabKey, RegisterHotKey, Carbon) instead of watching every key. It only
// ever reports keys it grabbed.
type GrabHook struct {
	mu     sync.Mutex
	grabs  map[keybind.Identity]*grab
	next   uint16
	events chan Event
}

type grab struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// grabbed keys get codes above the evdev range so press and release pair up
const grabCodeBase = 0x1000

func NewGrabHook() *GrabHook {
	return &GrabHook{
		grabs:  make(map[keybind.Identity]*grab),
		next:   grabCodeBase,
		events: make(chan Event, 16),
	}
}

func (g *GrabHook) Run(ctx context.Context, dispatch func(Event), ready func()) error {
	defer g.releaseAll()
	ready()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-g.events:
			dispatch(ev)
		}
	}
}

func (g *GrabHook) Grab(id keybind.Identity) error {
	key, ok := grabKeys[id.Key]
	if !ok {
		return fmt.Errorf("%w: key %q cannot be grabbed", keybind.ErrUnsupported, id.Key)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.grabs[id]; exists {
		return nil
	}

	hk := hotkey.New(grabModifiers(id), key)
	if err := hk.Register(); err != nil {
		return err
	}
	gr := &grab{hk: hk, stop: make(chan struct{})}
	g.grabs[id] = gr
	code := g.next
	g.next++

	go g.forward(gr, Event{Code: code, Mask: id.Mask(), Pressed: true, Text: id.Key})
	return nil
}

func (g *GrabHook) forward(gr *grab, press Event) {
	release := press
	release.Pressed = false
	for {
		var ev Event
		select {
		case <-gr.stop:
			return
		case <-gr.hk.Keydown():
			ev = press
		case <-gr.hk.Keyup():
			ev = release
		}
		select {
		case g.events <- ev:
		case <-gr.stop:
			return
		}
	}
}

func (g *GrabHook) Release(id keybind.Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gr, ok := g.grabs[id]; ok {
		close(gr.stop)
		gr.hk.Unregister()
		delete(g.grabs, id)
	}
}

func (g *GrabHook) releaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, gr := range g.grabs {
		close(gr.stop)
		gr.hk.Unregister()
		delete(g.grabs, id)
	}
}

func grabModifiers(id keybind.Identity) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if id.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if id.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if id.Alt {
		mods = append(mods, modAlt)
	}
	return mods
}

var grabKeys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	" ": hotkey.KeySpace, "space": hotkey.KeySpace,
	"\r": hotkey.KeyReturn, "enter": hotkey.KeyReturn,
	"\t": hotkey.KeyTab, "tab": hotkey.KeyTab,
	"\x1b": hotkey.KeyEscape, "esc": hotkey.KeyEscape,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// GrabAvailable reports whether this build can grab keys.
func GrabAvailable() bool { return true }
