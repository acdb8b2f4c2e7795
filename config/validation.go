package config

import (
	"errors"
	"fmt"

	"hotbind/hotkey"
	"hotbind/keybind"
)

func validateConfig(config *Config) error {
	var errs []error

	switch config.RawHook {
	case hotkey.HookUIOHook, hotkey.HookEvdev, hotkey.HookGrab:
	default:
		errs = append(errs, fmt.Errorf("raw_hook: unknown hook %q (want uiohook, evdev or grab)", config.RawHook))
	}
	if config.TriggerBuffer < 0 {
		errs = append(errs, fmt.Errorf("trigger_buffer: must not be negative, got %d", config.TriggerBuffer))
	}
	if config.LongPress <= 0 {
		errs = append(errs, fmt.Errorf("long_press: must be positive, got %s", config.LongPress))
	}
	if config.Portal.RequestTimeout <= 0 {
		errs = append(errs, errors.New("portal.request_timeout: must be positive"))
	}
	if config.Portal.BindTimeout <= 0 {
		errs = append(errs, errors.New("portal.bind_timeout: must be positive"))
	}

	ids := make(map[uint32]string, len(config.Bindings))
	for i, b := range config.Bindings {
		identity, err := keybind.ParseStrict(b.Shortcut)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("bindings[%d]: %q: %w", i, b.Shortcut, err))
		case identity == (keybind.Identity{}):
			errs = append(errs, fmt.Errorf("bindings[%d]: empty shortcut", i))
		}
		if prev, dup := ids[b.ID]; dup {
			errs = append(errs, fmt.Errorf("bindings[%d]: id %d already used by %q", i, b.ID, prev))
			continue
		}
		ids[b.ID] = b.Shortcut
	}

	return errors.Join(errs...)
}
