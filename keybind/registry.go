package keybind

import (
	"sort"
	"sync"
)

// Registry maps shortcut identities to ids. It is safe for concurrent use:
// the raw-input worker calls Find on every keystroke while callers register
// and unregister from their own goroutines.
type Registry struct {
	mu    sync.RWMutex
	binds map[Identity]ID
}

func NewRegistry() *Registry {
	return &Registry{binds: make(map[Identity]ID)}
}

// Register inserts or overwrites the mapping for identity.
func (r *Registry) Register(identity Identity, id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binds[identity] = id
}

// Unregister removes every identity mapped to id. Unknown ids are a no-op.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for identity, bound := range r.binds {
		if bound == id {
			delete(r.binds, identity)
		}
	}
}

func (r *Registry) Find(identity Identity) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.binds[identity]
	return id, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.binds)
}

// Binding is one registry entry.
type Binding struct {
	Identity Identity
	ID       ID
}

// Snapshot returns the current entries ordered by id, then identity text.
func (r *Registry) Snapshot() []Binding {
	r.mu.RLock()
	out := make([]Binding, 0, len(r.binds))
	for identity, id := range r.binds {
		out = append(out, Binding{Identity: identity, ID: id})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Identity.String() < out[j].Identity.String()
	})
	return out
}
