package hotkey

import (
	"sync"
	"time"

	"hotbind/keybind"
)

// Mode tells how a binding was used: held past the long press threshold,
// or tapped to latch it on until the next tap.
type Mode string

const (
	ModeHold Mode = "hold"
	ModeTap  Mode = "tap"
)

type Phase string

const (
	PhaseStart Phase = "start"
	PhaseStop  Phase = "stop"
)

// Gesture is a tap/hold decision for one binding.
type Gesture struct {
	ID    keybind.ID
	Phase Phase
	Mode  Mode
}

// Hybrid turns a binding's press/release triggers into tap and hold
// gestures on the same shortcut. A press always starts; a release after
// longPress stops a hold, a shorter one latches the binding on until the
// next press and release.
type Hybrid struct {
	longPress time.Duration

	mu    sync.Mutex
	state map[keybind.ID]*hybridState
}

type hybridState struct {
	phase   int
	pressed time.Time
}

const (
	stIdle = iota
	stDown
	stToggled
	stToggledDown
)

func NewHybrid(longPress time.Duration) *Hybrid {
	return &Hybrid{longPress: longPress, state: make(map[keybind.ID]*hybridState)}
}

// Observe feeds a trigger seen at time at and returns the resulting
// gesture, if any.
func (h *Hybrid) Observe(t keybind.Trigger, at time.Time) (Gesture, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := h.state[t.ID]
	if !ok {
		st = &hybridState{}
		h.state[t.ID] = st
	}

	switch {
	case t.Kind == keybind.Pressed && st.phase == stIdle:
		st.phase = stDown
		st.pressed = at
		return Gesture{ID: t.ID, Phase: PhaseStart, Mode: ModeTap}, true
	case t.Kind == keybind.Pressed && st.phase == stToggled:
		st.phase = stToggledDown
	case t.Kind == keybind.Released && st.phase == stDown:
		if at.Sub(st.pressed) >= h.longPress {
			st.phase = stIdle
			return Gesture{ID: t.ID, Phase: PhaseStop, Mode: ModeHold}, true
		}
		st.phase = stToggled
	case t.Kind == keybind.Released && st.phase == stToggledDown:
		st.phase = stIdle
		return Gesture{ID: t.ID, Phase: PhaseStop, Mode: ModeTap}, true
	}
	return Gesture{}, false
}

// IsToggle reports whether id is latched in toggle mode.
func (h *Hybrid) IsToggle(id keybind.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.state[id]
	return ok && (st.phase == stToggled || st.phase == stToggledDown)
}

// Holding reports whether id is currently pressed.
func (h *Hybrid) Holding(id keybind.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.state[id]
	return ok && (st.phase == stDown || st.phase == stToggledDown)
}
