package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager loads the configuration and reloads it when the file changes.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(old, cur *Config, d Diff)
	watching  bool
}

// NewManager reads from path when given, otherwise from config.* in the
// hotbind config directory or the working directory.
func NewManager(path string) (*Manager, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config directory: %w", err)
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HOTBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("prefer_portal", "HOTBIND_USE_XDG_PORTAL"); err != nil {
		return nil, fmt.Errorf("failed to bind HOTBIND_USE_XDG_PORTAL: %w", err)
	}
	if err := v.BindEnv("log.level", "HOTBIND_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind HOTBIND_LOG_LEVEL: %w", err)
	}

	return &Manager{viper: v}, nil
}

func (m *Manager) setDefaults() {
	d := DefaultConfig()
	m.viper.SetDefault("prefer_portal", d.PreferPortal)
	m.viper.SetDefault("raw_hook", d.RawHook)
	m.viper.SetDefault("display", d.Display)
	m.viper.SetDefault("trigger_buffer", d.TriggerBuffer)
	m.viper.SetDefault("long_press", d.LongPress)
	m.viper.SetDefault("portal.request_timeout", d.Portal.RequestTimeout)
	m.viper.SetDefault("portal.bind_timeout", d.Portal.BindTimeout)
	m.viper.SetDefault("log.level", d.Log.Level)
	m.viper.SetDefault("log.console", d.Log.Console)
}

// Load reads the file and environment. A missing file leaves the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file %s: %w", m.viper.ConfigFileUsed(), err)
		}
	}

	config, err := m.unmarshal()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

func (m *Manager) unmarshal() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", m.viper.ConfigFileUsed(), err)
	}
	normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func normalizeConfig(config *Config) {
	config.RawHook = strings.ToLower(strings.TrimSpace(config.RawHook))
	for i := range config.Bindings {
		config.Bindings[i].Shortcut = strings.TrimSpace(config.Bindings[i].Shortcut)
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// File is the path of the file in use, empty when none was found.
func (m *Manager) File() string {
	return m.viper.ConfigFileUsed()
}
