package hotkey

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"hotbind/keybind"
	"hotbind/portal"
)

// FakeBackend is an in-memory portal stand-in. Activate and Deactivate play
// the role of the portal's activation signals.
type FakeBackend struct {
	StartErr error

	mu     sync.Mutex
	reg    *keybind.Registry
	emit   keybind.Emitter
	specs  map[keybind.ID]string
	closed bool
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{specs: make(map[keybind.ID]string)}
}

// Starter returns a PortalStarter that hands out f.
func (f *FakeBackend) Starter() PortalStarter {
	return func(_ context.Context, _ portal.Config, _ Handles, reg *keybind.Registry, emit keybind.Emitter, _ zerolog.Logger) (Backend, error) {
		if f.StartErr != nil {
			return nil, f.StartErr
		}
		f.mu.Lock()
		f.reg, f.emit = reg, emit
		f.mu.Unlock()
		return f, nil
	}
}

func (f *FakeBackend) Name() string { return "fake" }

func (f *FakeBackend) Register(_ context.Context, spec string, id keybind.ID) error {
	f.mu.Lock()
	f.specs[id] = spec
	reg := f.reg
	f.mu.Unlock()
	reg.Register(keybind.Parse(spec), id)
	return nil
}

func (f *FakeBackend) Unregister(context.Context, keybind.ID) error {
	return keybind.ErrUnsupported
}

// ListShortcuts reports each bound spec as its trigger, ordered by id.
func (f *FakeBackend) ListShortcuts(context.Context) ([]portal.Shortcut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]keybind.ID, 0, len(f.specs))
	for id := range f.specs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]portal.Shortcut, 0, len(ids))
	for _, id := range ids {
		sid := strconv.FormatUint(uint64(id), 10)
		out = append(out, portal.Shortcut{ID: sid, Description: sid, Trigger: f.specs[id]})
	}
	return out, nil
}

func (f *FakeBackend) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FakeBackend) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeBackend) Spec(id keybind.ID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.specs[id]
}

func (f *FakeBackend) Activate(id keybind.ID)   { f.signal(keybind.PressedTrigger(id)) }
func (f *FakeBackend) Deactivate(id keybind.ID) { f.signal(keybind.ReleasedTrigger(id)) }

func (f *FakeBackend) signal(t keybind.Trigger) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	emit(t)
}
