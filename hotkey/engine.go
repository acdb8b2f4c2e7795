package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"hotbind/keybind"
	"hotbind/portal"
	"hotbind/rawinput"
)

var errAlreadyStarted = errors.New("engine already started")

// Engine owns a keybind registry, the selected backend and the trigger
// channel the backend reports through.
type Engine struct {
	cfg Config
	reg *keybind.Registry
	log zerolog.Logger

	triggers  chan keybind.Trigger
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	started   atomic.Bool
	active    atomic.Pointer[activeBackend]
	failure   atomic.Pointer[error]
	ready     chan struct{}
	readyOnce sync.Once

	startPortal PortalStarter
	hook        rawinput.Hook
	loadKeymap  rawinput.KeymapLoader
}

type activeBackend struct {
	kind    Kind
	backend Backend
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		reg:         keybind.NewRegistry(),
		log:         zerolog.Nop(),
		done:        make(chan struct{}),
		ready:       make(chan struct{}),
		startPortal: openPortal,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loadKeymap == nil {
		e.loadKeymap = keymapLoader(cfg.Display)
	}
	buf := cfg.TriggerBuffer
	if buf < 0 {
		buf = 0
	}
	e.triggers = make(chan keybind.Trigger, buf)
	e.cfg.Portal.Wayland = cfg.Wayland
	e.log = e.log.With().Str("component", "hotkey").Logger()
	return e
}

// Start selects a backend and starts it. The portal is tried first under
// Wayland or when preferred; if it fails the engine falls back to raw input
// once. A portal start returns as soon as the session exists. A raw-input
// start blocks until ctx is cancelled, the engine is closed or the hook
// fails. The backend becomes active, and Ready is closed, only once it is
// running; after a fatal failure Register and Unregister return the error.
func (e *Engine) Start(ctx context.Context, h Handles) error {
	if e.closed() {
		return keybind.ErrClosed
	}
	if !e.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	if e.cfg.wantsPortal() {
		b, err := e.startPortal(ctx, e.cfg.Portal, h, e.reg, e.emit, e.log)
		if err == nil {
			e.publish(KindPortal, b)
			return nil
		}
		e.log.Warn().Err(err).Msg("portal backend unavailable, falling back to raw input")
	}
	return e.runRaw(ctx)
}

func (e *Engine) runRaw(ctx context.Context) error {
	hook := e.hook
	if hook == nil {
		var err error
		if hook, err = newHook(e.cfg.RawHook); err != nil {
			return fmt.Errorf("%w: %w", keybind.ErrHookStart, err)
		}
	}

	raw := rawinput.New(e.reg, e.emit, hook, e.loadKeymap, e.log)
	raw.OnReady(func() { e.publish(KindRawInput, raw) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := raw.Run(ctx)
	if err != nil {
		e.failure.Store(&err)
		e.log.Error().Err(err).Msg("raw input backend stopped")
	}
	return err
}

// failed returns the error that stopped the backend, if any.
func (e *Engine) failed() error {
	if p := e.failure.Load(); p != nil {
		return *p
	}
	return nil
}

func (e *Engine) publish(kind Kind, b Backend) {
	e.active.Store(&activeBackend{kind: kind, backend: b})
	e.readyOnce.Do(func() { close(e.ready) })
	e.log.Info().Str("backend", b.Name()).Msg("hotkey backend active")
	if e.closed() {
		_ = b.Close()
	}
}

func (e *Engine) current() (Backend, error) {
	if e.closed() {
		return nil, keybind.ErrClosed
	}
	if err := e.failed(); err != nil {
		return nil, err
	}
	a := e.active.Load()
	if a == nil {
		return nil, keybind.ErrNotStarted
	}
	return a.backend, nil
}

// Register binds spec to id on the active backend.
func (e *Engine) Register(ctx context.Context, spec string, id keybind.ID) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.Register(ctx, spec, id)
}

// Unregister removes every binding of id from the active backend.
func (e *Engine) Unregister(ctx context.Context, id keybind.ID) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.Unregister(ctx, id)
}

// ShortcutLister is implemented by backends that can report the triggers
// the desktop assigned to their shortcuts.
type ShortcutLister interface {
	ListShortcuts(ctx context.Context) ([]portal.Shortcut, error)
}

// ListShortcuts asks the active backend for its bound shortcuts. Backends
// that cannot report them return keybind.ErrUnsupported.
func (e *Engine) ListShortcuts(ctx context.Context) ([]portal.Shortcut, error) {
	b, err := e.current()
	if err != nil {
		return nil, err
	}
	l, ok := b.(ShortcutLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend cannot list shortcuts", keybind.ErrUnsupported, b.Name())
	}
	return l.ListShortcuts(ctx)
}

// Active reports which backend the engine is using. It is KindNone before a
// backend runs and after the active one failed.
func (e *Engine) Active() Kind {
	if e.failed() != nil {
		return KindNone
	}
	if a := e.active.Load(); a != nil {
		return a.kind
	}
	return KindNone
}

func (e *Engine) Registry() *keybind.Registry { return e.reg }

// Ready is closed once a backend is active and accepts registrations.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Triggers is the stream of shortcut activations. It is never closed; select
// on Done to notice shutdown.
func (e *Engine) Triggers() <-chan keybind.Trigger { return e.triggers }

func (e *Engine) Done() <-chan struct{} { return e.done }

// Next waits for the next trigger. It returns keybind.ErrClosed once the
// engine is closed.
func (e *Engine) Next(ctx context.Context) (keybind.Trigger, error) {
	if e.closed() {
		return keybind.Trigger{}, keybind.ErrClosed
	}
	select {
	case t := <-e.triggers:
		return t, nil
	case <-e.done:
		return keybind.Trigger{}, keybind.ErrClosed
	case <-ctx.Done():
		return keybind.Trigger{}, ctx.Err()
	}
}

// emit delivers t in order, blocking until it is read or the engine closes.
func (e *Engine) emit(t keybind.Trigger) {
	select {
	case e.triggers <- t:
	case <-e.done:
	}
}

// Close stops the active backend and releases blocked producers and
// consumers. It is safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		if a := e.active.Load(); a != nil {
			e.closeErr = a.backend.Close()
		}
	})
	return e.closeErr
}

func (e *Engine) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
