// Package rawinput implements the raw-input backend: a process-wide keyboard
// hook whose keycodes are translated through the keyboard layout and matched
// against the shortcut registry.
package rawinput

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"hotbind/keybind"
	"hotbind/keymap"
)

// Event is one key transition reported by a Hook.
type Event struct {
	// Code is the Linux evdev keycode of the key.
	Code    uint16
	Mask    keybind.Modifiers
	Pressed bool
	// Text, when set, is used instead of translating Code. Hooks that match
	// shortcuts themselves report it.
	Text string
}

// Hook is a native source of keyboard events. Run blocks, calling dispatch
// from a single goroutine, until ctx is cancelled or the hook fails. Run
// calls ready once the hook is installed, before the first dispatch. A hook
// that cannot start returns an error wrapping keybind.ErrHookStart without
// calling ready.
type Hook interface {
	Run(ctx context.Context, dispatch func(Event), ready func()) error
}

// Grabber is implemented by hooks that only see keys they grabbed up front.
type Grabber interface {
	Grab(id keybind.Identity) error
	Release(id keybind.Identity)
}

// KeymapLoader produces the keymap on the hook goroutine. It may return a
// usable fallback keymap together with the error explaining the fallback.
type KeymapLoader func() (*keymap.Keymap, error)

type Backend struct {
	reg  *keybind.Registry
	emit keybind.Emitter
	hook Hook
	load KeymapLoader
	log  zerolog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	onReady   func()
	ready     chan struct{}
	readyOnce sync.Once
}

func New(reg *keybind.Registry, emit keybind.Emitter, hook Hook, load KeymapLoader, log zerolog.Logger) *Backend {
	if load == nil {
		load = func() (*keymap.Keymap, error) { return keymap.Static(), nil }
	}
	return &Backend{
		reg:   reg,
		emit:  emit,
		hook:  hook,
		load:  load,
		log:   log.With().Str("component", "rawinput").Logger(),
		ready: make(chan struct{}),
	}
}

func (b *Backend) Name() string { return "raw-input" }

// OnReady sets fn to run on the hook goroutine once the hook is installed.
// It must be called before Run.
func (b *Backend) OnReady(fn func()) { b.onReady = fn }

// Ready is closed once the hook is installed. It stays open if the hook
// fails to start.
func (b *Backend) Ready() <-chan struct{} { return b.ready }

func (b *Backend) markReady() {
	b.readyOnce.Do(func() {
		b.log.Info().Msg("raw input hook running")
		if b.onReady != nil {
			b.onReady()
		}
		close(b.ready)
	})
}

// Run loads the keymap and runs the hook on the calling goroutine, which is
// locked to its OS thread for the duration. It returns nil once ctx is
// cancelled or Close is called.
func (b *Backend) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	km, err := b.load()
	if km == nil {
		return fmt.Errorf("%w: loading keymap: %w", keybind.ErrHookStart, err)
	}
	if err != nil {
		b.log.Warn().Err(err).Str("keymap", km.Source()).Msg("keymap fallback")
	}

	w := &worker{
		reg:   b.reg,
		emit:  b.emit,
		state: km.NewState(),
		held:  make(map[uint16]keybind.ID),
		log:   b.log,
	}
	b.log.Info().Str("keymap", km.Source()).Msg("raw input hook starting")
	if err := b.hook.Run(ctx, w.dispatch, b.markReady); err != nil {
		if errors.Is(err, keybind.ErrHookStart) {
			return err
		}
		return fmt.Errorf("%w: %w", keybind.ErrHookStart, err)
	}
	return nil
}

// Register parses spec and records it in the registry, grabbing it first
// when the hook needs grabs.
func (b *Backend) Register(_ context.Context, spec string, id keybind.ID) error {
	identity := keybind.Parse(spec)
	if g, ok := b.hook.(Grabber); ok {
		if err := g.Grab(identity); err != nil {
			return fmt.Errorf("grabbing %q: %w", spec, err)
		}
	}
	b.reg.Register(identity, id)
	b.log.Debug().Str("shortcut", identity.String()).Uint32("id", uint32(id)).Msg("registered")
	return nil
}

func (b *Backend) Unregister(_ context.Context, id keybind.ID) error {
	if g, ok := b.hook.(Grabber); ok {
		for _, bind := range b.reg.Snapshot() {
			if bind.ID == id {
				g.Release(bind.Identity)
			}
		}
	}
	b.reg.Unregister(id)
	return nil
}

// Close stops a running hook.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

// worker is the per-hook context: translator state and the keys currently
// held down that matched a shortcut. Only the hook goroutine touches it.
type worker struct {
	reg   *keybind.Registry
	emit  keybind.Emitter
	state *keymap.State
	held  map[uint16]keybind.ID
	log   zerolog.Logger
}

func (w *worker) dispatch(ev Event) {
	if !ev.Pressed {
		if id, ok := w.held[ev.Code]; ok {
			delete(w.held, ev.Code)
			w.emit(keybind.ReleasedTrigger(id))
		}
		return
	}

	text := ev.Text
	if text == "" {
		text = w.state.Text(ev.Code)
	}
	identity := keybind.FromMask(ev.Mask, text)
	id, ok := w.reg.Find(identity)
	if !ok {
		return
	}
	w.held[ev.Code] = id
	w.log.Debug().Str("shortcut", identity.String()).Uint32("id", uint32(id)).Msg("pressed")
	w.emit(keybind.PressedTrigger(id))
}
