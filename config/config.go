// Package config loads hotbind's settings file and watches it for changes.
package config

import (
	"os"
	"path/filepath"
	"time"

	"hotbind/hotkey"
	"hotbind/keybind"
	"hotbind/portal"
)

type Config struct {
	PreferPortal  bool          `mapstructure:"prefer_portal"`
	RawHook       string        `mapstructure:"raw_hook"`
	Display       string        `mapstructure:"display"`
	TriggerBuffer int           `mapstructure:"trigger_buffer"`
	LongPress     time.Duration `mapstructure:"long_press"`
	Portal        PortalConfig  `mapstructure:"portal"`
	Log           LogConfig     `mapstructure:"log"`
	Bindings      []Binding     `mapstructure:"bindings"`
}

type PortalConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BindTimeout    time.Duration `mapstructure:"bind_timeout"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Binding maps a shortcut to the id its triggers carry.
type Binding struct {
	Shortcut string `mapstructure:"shortcut"`
	ID       uint32 `mapstructure:"id"`
}

func (b Binding) Identity() keybind.Identity { return keybind.Parse(b.Shortcut) }

func DefaultConfig() *Config {
	return &Config{
		RawHook:       hotkey.HookUIOHook,
		TriggerBuffer: 16,
		LongPress:     300 * time.Millisecond,
		Portal: PortalConfig{
			RequestTimeout: 10 * time.Second,
			BindTimeout:    2 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Engine merges the file settings over the detected session environment.
func (c *Config) Engine(env hotkey.Config) hotkey.Config {
	out := env
	out.PreferPortal = env.PreferPortal || c.PreferPortal
	if c.RawHook != "" {
		out.RawHook = c.RawHook
	}
	if c.Display != "" {
		out.Display = c.Display
	}
	out.TriggerBuffer = c.TriggerBuffer
	out.Portal = portal.Config{
		RequestTimeout: c.Portal.RequestTimeout,
		BindTimeout:    c.Portal.BindTimeout,
		Wayland:        env.Wayland,
		Exporter:       env.Portal.Exporter,
	}
	return out
}

// GetConfigDir returns $XDG_CONFIG_HOME/hotbind.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hotbind"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hotbind"), nil
}
