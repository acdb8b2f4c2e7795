package keybind

import "errors"

var (
	// ErrHookStart means the native keyboard hook could not be started.
	ErrHookStart = errors.New("keyboard hook failed to start")
	// ErrPortalSession covers portal session, window identifier and bind failures.
	ErrPortalSession = errors.New("global shortcuts portal failure")
	// ErrUnsupported is returned for operations the active backend cannot perform.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrNotStarted is returned when no backend is active yet.
	ErrNotStarted = errors.New("no active backend")
	// ErrClosed is returned once the trigger stream is closed.
	ErrClosed = errors.New("trigger stream closed")
	// ErrMultipleKeys is returned by ParseStrict.
	ErrMultipleKeys = errors.New("shortcut names more than one key")
)
