package rawinput

import (
	"context"

	"hotbind/keybind"
)

// FakeHook is a Hook driven by tests and the headless test mode.
type FakeHook struct {
	StartErr error

	events  chan fakeEvent
	started chan struct{}
}

type fakeEvent struct {
	ev   Event
	done chan struct{}
}

func NewFakeHook() *FakeHook {
	return &FakeHook{
		events:  make(chan fakeEvent),
		started: make(chan struct{}),
	}
}

func (f *FakeHook) Run(ctx context.Context, dispatch func(Event), ready func()) error {
	if f.StartErr != nil {
		return f.StartErr
	}
	ready()
	close(f.started)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fe := <-f.events:
			dispatch(fe.ev)
			close(fe.done)
		}
	}
}

// Started is closed once Run is dispatching events.
func (f *FakeHook) Started() <-chan struct{} { return f.started }

// Send delivers ev and returns after it has been dispatched.
func (f *FakeHook) Send(ev Event) {
	done := make(chan struct{})
	f.events <- fakeEvent{ev: ev, done: done}
	<-done
}

func (f *FakeHook) Press(code uint16, mask keybind.Modifiers) {
	f.Send(Event{Code: code, Mask: mask, Pressed: true})
}

func (f *FakeHook) Release(code uint16, mask keybind.Modifiers) {
	f.Send(Event{Code: code, Mask: mask})
}
