package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"hotbind/config"
	"hotbind/hotkey"
	"hotbind/keybind"
	"hotbind/log"
)

// app wires the config file, the engine and a trigger sink together.
type app struct {
	cfgMgr *config.Manager
	engine *hotkey.Engine
	logger zerolog.Logger

	mu        sync.RWMutex
	shortcuts map[keybind.ID]string
	count     atomic.Int64

	onBackend func(hotkey.Kind)
	onTrigger func(keybind.Trigger, string)
	onChange  func([]config.Binding)
}

func newApp(flags *rootFlags) (*app, error) {
	m, err := config.NewManager(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	cfg := m.Get()
	if err := initLogging(cfg, flags); err != nil {
		return nil, fmt.Errorf("could not init logging: %w", err)
	}

	logger := log.Logger()
	env := hotkey.DetectEnvironment()
	return &app{
		cfgMgr:    m,
		engine:    hotkey.New(cfg.Engine(env), hotkey.WithLogger(logger)),
		logger:    logger,
		shortcuts: make(map[keybind.ID]string),
	}, nil
}

// run starts the engine, applies the configured bindings and delivers
// triggers until ctx is cancelled or the backend fails.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(log.WithContext(ctx, a.logger))
	defer cancel()
	bindCtx := log.WithComponent(ctx, "bindings")

	startErr := make(chan error, 1)
	go func() { startErr <- a.engine.Start(ctx, hotkey.Handles{}) }()

	backendErr := make(chan error, 1)
	select {
	case <-a.engine.Ready():
		go func() {
			// A raw-input backend that dies ends the session.
			if err := <-startErr; err != nil {
				backendErr <- err
				cancel()
			}
		}()
	case err := <-startErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return nil
	}

	kind := a.engine.Active()
	if a.onBackend != nil {
		a.onBackend(kind)
	}
	cfg := a.cfgMgr.Get()
	a.apply(bindCtx, config.DiffBindings(nil, cfg.Bindings))
	log.SessionStart(kind.String(), cfg.Engine(hotkey.DetectEnvironment()).RawHook, len(cfg.Bindings))

	a.cfgMgr.OnConfigChange(func(_, cur *config.Config, d config.Diff) {
		if d.Empty() {
			return
		}
		log.FromContext(bindCtx).Info().Int("added", len(d.Added)).Int("removed", len(d.Removed)).Msg("bindings changed")
		a.apply(bindCtx, d)
		if a.onChange != nil {
			a.onChange(cur.Bindings)
		}
	})
	a.cfgMgr.Watch(*log.FromContext(log.WithComponent(ctx, "config")))

	for {
		t, err := a.engine.Next(ctx)
		if err != nil {
			select {
			case berr := <-backendErr:
				return berr
			default:
			}
			if errors.Is(err, keybind.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		a.count.Add(1)
		shortcut := a.shortcut(t.ID)
		log.Trigger(t, shortcut)
		if a.onTrigger != nil {
			a.onTrigger(t, shortcut)
		}
	}
}

// apply unregisters removed bindings and registers added ones. Backends that
// cannot unregister keep the old binding until restart.
func (a *app) apply(ctx context.Context, d config.Diff) {
	logger := log.FromContext(ctx)
	for _, b := range d.Removed {
		id := keybind.ID(b.ID)
		err := a.engine.Unregister(ctx, id)
		switch {
		case errors.Is(err, keybind.ErrUnsupported):
			logger.Warn().Str("shortcut", b.Shortcut).Msg("backend cannot unregister, binding stays until restart")
			continue
		case err != nil:
			logger.Error().Err(err).Str("shortcut", b.Shortcut).Msg("unregister failed")
			continue
		}
		a.mu.Lock()
		delete(a.shortcuts, id)
		a.mu.Unlock()
	}
	for _, b := range d.Added {
		id := keybind.ID(b.ID)
		if err := a.engine.Register(ctx, b.Shortcut, id); err != nil {
			logger.Error().Err(err).Str("shortcut", b.Shortcut).Msg("register failed")
			continue
		}
		a.mu.Lock()
		a.shortcuts[id] = b.Shortcut
		a.mu.Unlock()
	}
}

func (a *app) shortcut(id keybind.ID) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.shortcuts[id]
}

func (a *app) close() {
	a.engine.Close()
	if n := a.count.Load(); n > 0 {
		log.SessionEnd(int(n))
	}
	log.Close()
}
