package portal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotbind/keybind"
)

const testSession = dbus.ObjectPath("/org/freedesktop/portal/desktop/session/1_42/hotbind_test")

type recorder struct {
	mu       sync.Mutex
	triggers []keybind.Trigger
}

func (r *recorder) emit(t keybind.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)
}

func (r *recorder) all() []keybind.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]keybind.Trigger(nil), r.triggers...)
}

func newTestBackend(t *testing.T) (*Backend, *recorder) {
	t.Helper()
	rec := &recorder{}
	b := newBackend(nil, Config{}, keybind.NewRegistry(), rec.emit, zerolog.Nop())
	b.session = testSession
	return b, rec
}

func activationSignal(member string, session dbus.ObjectPath, id string) *dbus.Signal {
	return &dbus.Signal{
		Path: portalPath,
		Name: shortcutsIface + "." + member,
		Body: []interface{}{session, id, uint64(1234), map[string]dbus.Variant{}},
	}
}

func TestActivationEmitsPressAndRelease(t *testing.T) {
	b, rec := newTestBackend(t)

	b.handleSignal(activationSignal("Activated", testSession, "1"))
	b.handleSignal(activationSignal("Deactivated", testSession, "1"))

	assert.Equal(t, []keybind.Trigger{
		keybind.PressedTrigger(1),
		keybind.ReleasedTrigger(1),
	}, rec.all())
}

func TestActivationIgnoresOtherSessions(t *testing.T) {
	b, rec := newTestBackend(t)

	b.handleSignal(activationSignal("Activated", "/org/freedesktop/portal/desktop/session/1_7/other", "1"))

	assert.Empty(t, rec.all())
}

func TestActivationDropsUnparsableIDs(t *testing.T) {
	b, rec := newTestBackend(t)

	for _, id := range []string{"", "toggle", "-1", "4294967296"} {
		b.handleSignal(activationSignal("Activated", testSession, id))
	}
	b.handleSignal(&dbus.Signal{Name: shortcutsIface + ".Activated", Body: []interface{}{testSession}})
	b.handleSignal(activationSignal("Activated", testSession, "4294967295"))

	assert.Equal(t, []keybind.Trigger{keybind.PressedTrigger(4294967295)}, rec.all())
}

func TestUnrelatedSignalsIgnored(t *testing.T) {
	b, rec := newTestBackend(t)

	b.handleSignal(&dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired", Body: []interface{}{":1.42"}})
	b.handleSignal(&dbus.Signal{Name: shortcutsIface + ".ShortcutsChanged", Body: []interface{}{testSession}})

	assert.Empty(t, rec.all())
}

func TestResponseDeliveredToPendingRequest(t *testing.T) {
	b, _ := newTestBackend(t)
	path := requestPath(":1.42", "hotbind_abc")
	ch := make(chan response, 1)
	b.pending[path] = ch

	b.handleSignal(&dbus.Signal{
		Path: path,
		Name: requestIface + ".Response",
		Body: []interface{}{uint32(0), map[string]dbus.Variant{
			"session_handle": dbus.MakeVariant(string(testSession)),
		}},
	})

	select {
	case resp := <-ch:
		assert.Equal(t, uint32(0), resp.code)
		assert.Equal(t, string(testSession), resp.results["session_handle"].Value())
	default:
		t.Fatal("response not delivered")
	}
}

func TestResponseForUnknownRequestDropped(t *testing.T) {
	b, _ := newTestBackend(t)
	ch := make(chan response, 1)
	b.pending[requestPath(":1.42", "hotbind_abc")] = ch

	b.handleSignal(&dbus.Signal{
		Path: requestPath(":1.42", "hotbind_other"),
		Name: requestIface + ".Response",
		Body: []interface{}{uint32(0), map[string]dbus.Variant{}},
	})

	assert.Empty(t, ch)
}

func TestUnregisterUnsupported(t *testing.T) {
	b, _ := newTestBackend(t)
	b.reg.Register(keybind.Parse("ctrl+m"), 1)

	err := b.Unregister(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, keybind.ErrUnsupported))
	assert.Equal(t, 1, b.reg.Len())
}

func TestRequestPath(t *testing.T) {
	assert.Equal(t,
		dbus.ObjectPath("/org/freedesktop/portal/desktop/request/1_42/hotbind_abc"),
		requestPath(":1.42", "hotbind_abc"))
}

func TestTokenIsObjectPathElement(t *testing.T) {
	a, b := newToken(), newToken()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "hotbind_"))
	assert.True(t, requestPath(":1.1", a).IsValid())
}

func TestNewEntry(t *testing.T) {
	e := newEntry(7, "ctrl+alt+k")

	assert.Equal(t, "7", e.ID)
	assert.Equal(t, "7", e.Props["description"].Value())
	assert.Equal(t, "ctrl+alt+k", e.Props["preferred_trigger"].Value())
}

func TestDecodeShortcuts(t *testing.T) {
	raw := [][]interface{}{
		{"1", map[string]dbus.Variant{
			"description":         dbus.MakeVariant("1"),
			"trigger_description": dbus.MakeVariant("Ctrl+M"),
		}},
		{"2", map[string]dbus.Variant{}},
	}

	got, err := decodeShortcuts(dbus.MakeVariant(raw))

	require.NoError(t, err)
	assert.Equal(t, []Shortcut{
		{ID: "1", Description: "1", Trigger: "Ctrl+M"},
		{ID: "2"},
	}, got)
}

func TestCloseWithoutConnection(t *testing.T) {
	b, _ := newTestBackend(t)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
