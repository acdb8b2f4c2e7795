package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Diff lists bindings that appeared and disappeared between two configs.
// A binding whose shortcut changed shows up in both.
type Diff struct {
	Added   []Binding
	Removed []Binding
}

func (d Diff) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// DiffBindings compares bindings by normalized shortcut and id.
func DiffBindings(old, cur []Binding) Diff {
	type key struct {
		shortcut string
		id       uint32
	}
	index := func(bs []Binding) map[key]bool {
		m := make(map[key]bool, len(bs))
		for _, b := range bs {
			m[key{b.Identity().String(), b.ID}] = true
		}
		return m
	}
	oldSet, curSet := index(old), index(cur)

	var d Diff
	for _, b := range old {
		if !curSet[key{b.Identity().String(), b.ID}] {
			d.Removed = append(d.Removed, b)
		}
	}
	for _, b := range cur {
		if !oldSet[key{b.Identity().String(), b.ID}] {
			d.Added = append(d.Added, b)
		}
	}
	return d
}

// OnConfigChange registers fn to run after each successful reload.
func (m *Manager) OnConfigChange(fn func(old, cur *Config, d Diff)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch reloads the file when it changes. Invalid edits are logged and the
// previous configuration stays in effect.
func (m *Manager) Watch(log zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("config change detected")
		m.reload(log)
	})
	m.viper.WatchConfig()
	m.watching = true
}

func (m *Manager) reload(log zerolog.Logger) {
	m.mu.Lock()
	config, err := m.unmarshal()
	if err != nil {
		m.mu.Unlock()
		log.Warn().Err(err).Msg("failed to reload config, keeping previous")
		return
	}
	old := m.config
	m.config = config
	callbacks := make([]func(old, cur *Config, d Diff), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	var prev []Binding
	if old != nil {
		prev = old.Bindings
	}
	d := DiffBindings(prev, config.Bindings)
	for _, fn := range callbacks {
		fn(old, config, d)
	}
}
