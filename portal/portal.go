// Package portal implements the portal backend: global shortcuts bound
// through the XDG desktop portal (org.freedesktop.portal.GlobalShortcuts)
// over the D-Bus session bus.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hotbind/keybind"
)

const (
	portalDest     = "org.freedesktop.portal.Desktop"
	portalPath     = "/org/freedesktop/portal/desktop"
	shortcutsIface = "org.freedesktop.portal.GlobalShortcuts"
	requestIface   = "org.freedesktop.portal.Request"
	sessionIface   = "org.freedesktop.portal.Session"
	propertiesGet  = "org.freedesktop.DBus.Properties.Get"
)

// Request.Response codes
const (
	responseSuccess   = 0
	responseCancelled = 1
)

type Config struct {
	// RequestTimeout bounds CreateSession and ListShortcuts.
	RequestTimeout time.Duration
	// BindTimeout bounds BindShortcuts, which may wait on a user dialog.
	BindTimeout time.Duration
	Wayland     bool
	Exporter    SurfaceExporter
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.BindTimeout <= 0 {
		c.BindTimeout = 2 * time.Minute
	}
	return c
}

// bus is the part of the session bus the backend makes method calls on.
type bus interface {
	UniqueName() string
	Call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call
}

type connBus struct{ conn *dbus.Conn }

func (c connBus) UniqueName() string { return c.conn.Names()[0] }

func (c connBus) Call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call {
	return c.conn.Object(portalDest, path).CallWithContext(ctx, method, 0, args...)
}

// Backend is an open GlobalShortcuts session.
type Backend struct {
	conn *dbus.Conn
	bus  bus
	reg  *keybind.Registry
	emit keybind.Emitter
	log  zerolog.Logger
	cfg  Config

	session dbus.ObjectPath
	parent  string
	signals chan *dbus.Signal

	mu      sync.Mutex
	pending map[dbus.ObjectPath]chan response
	bound   map[keybind.ID]string
	cancel  context.CancelFunc
	group   *errgroup.Group
	closed  bool
}

type response struct {
	code    uint32
	results map[string]dbus.Variant
}

// shortcutEntry is the (sa{sv}) pair BindShortcuts and ListShortcuts use.
type shortcutEntry struct {
	ID    string
	Props map[string]dbus.Variant
}

func newBackend(conn *dbus.Conn, cfg Config, reg *keybind.Registry, emit keybind.Emitter, log zerolog.Logger) *Backend {
	b := &Backend{
		conn:    conn,
		reg:     reg,
		emit:    emit,
		log:     log.With().Str("component", "portal").Logger(),
		cfg:     cfg.withDefaults(),
		pending: make(map[dbus.ObjectPath]chan response),
		bound:   make(map[keybind.ID]string),
	}
	if conn != nil {
		b.bus = connBus{conn: conn}
	}
	return b
}

// Open connects to the session bus, creates a GlobalShortcuts session and
// starts pumping activation signals. Signals keep flowing until ctx is
// cancelled or Close is called. Every failure wraps keybind.ErrPortalSession.
func Open(ctx context.Context, cfg Config, handles Handles, reg *keybind.Registry, emit keybind.Emitter, log zerolog.Logger) (*Backend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to session bus: %w", keybind.ErrPortalSession, err)
	}

	b := newBackend(conn, cfg, reg, emit, log)
	if err := b.start(ctx, handles); err != nil {
		b.shutdown()
		if errors.Is(err, keybind.ErrPortalSession) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", keybind.ErrPortalSession, err)
	}
	return b, nil
}

func (b *Backend) Name() string { return "portal" }

func (b *Backend) start(ctx context.Context, handles Handles) error {
	version, err := probeVersion(b.conn)
	if err != nil {
		return fmt.Errorf("GlobalShortcuts portal not available: %w", err)
	}
	b.log.Debug().Uint32("version", version).Msg("portal available")

	if err := b.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(shortcutsIface),
	); err != nil {
		return fmt.Errorf("adding shortcut signal match: %w", err)
	}
	if err := b.conn.AddMatchSignal(
		dbus.WithMatchInterface(requestIface),
		dbus.WithMatchMember("Response"),
	); err != nil {
		return fmt.Errorf("adding request signal match: %w", err)
	}

	b.signals = make(chan *dbus.Signal, 32)
	b.conn.Signal(b.signals)

	pumpCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(pumpCtx)
	b.mu.Lock()
	b.cancel = cancel
	b.group = g
	b.mu.Unlock()

	g.Go(func() error { return b.route(gctx) })
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-b.conn.Context().Done():
			return errors.New("session bus connection lost")
		}
	})
	go func() {
		if err := g.Wait(); err != nil {
			b.log.Error().Err(err).Msg("portal signal pump stopped")
		}
	}()

	session, err := b.createSession(ctx)
	if err != nil {
		return err
	}
	b.session = session

	parent, err := ParentWindow(ctx, b.cfg.Wayland, handles, b.cfg.Exporter)
	if err != nil {
		return err
	}
	if parent == "" && handles.Window != nil {
		b.log.Warn().Msg("window handle could not be exported, binding without parent window")
	}
	b.parent = parent

	b.log.Info().
		Str("session", string(session)).
		Str("parent_window", parent).
		Msg("portal session created")
	return nil
}

func probeVersion(conn *dbus.Conn) (uint32, error) {
	var version uint32
	err := conn.Object(portalDest, portalPath).
		Call(propertiesGet, 0, shortcutsIface, "version").
		Store(&version)
	return version, err
}

// Probe reports the GlobalShortcuts interface version of the running portal.
func Probe() (uint32, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return probeVersion(conn)
}

func (b *Backend) createSession(ctx context.Context) (dbus.ObjectPath, error) {
	sessionToken := newToken()
	resp, err := b.request(ctx, b.cfg.RequestTimeout, "CreateSession", func(token string) []interface{} {
		return []interface{}{map[string]dbus.Variant{
			"handle_token":         dbus.MakeVariant(token),
			"session_handle_token": dbus.MakeVariant(sessionToken),
		}}
	})
	if err != nil {
		return "", err
	}

	v, ok := resp.results["session_handle"]
	if !ok {
		return "", errors.New("CreateSession response has no session_handle")
	}
	switch h := v.Value().(type) {
	case string:
		return dbus.ObjectPath(h), nil
	case dbus.ObjectPath:
		return h, nil
	default:
		return "", fmt.Errorf("unexpected session_handle type %T", h)
	}
}

// request calls a portal method that answers through a Request object and
// waits for its Response signal. args receives the handle token to embed in
// the method's options.
func (b *Backend) request(ctx context.Context, timeout time.Duration, method string, args func(token string) []interface{}) (response, error) {
	token := newToken()
	expected := requestPath(b.bus.UniqueName(), token)
	ch := make(chan response, 1)

	b.mu.Lock()
	b.pending[expected] = ch
	b.mu.Unlock()
	handle := expected
	defer func() {
		b.mu.Lock()
		delete(b.pending, handle)
		b.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var got dbus.ObjectPath
	err := b.bus.Call(ctx, portalPath, shortcutsIface+"."+method, args(token)...).Store(&got)
	if err != nil {
		return response{}, fmt.Errorf("%s: %w", method, err)
	}
	// Portals older than 0.9 ignore handle_token.
	if got != expected {
		b.mu.Lock()
		delete(b.pending, expected)
		b.pending[got] = ch
		handle = got
		b.mu.Unlock()
	}

	select {
	case resp := <-ch:
		switch resp.code {
		case responseSuccess:
			return resp, nil
		case responseCancelled:
			return resp, fmt.Errorf("%s: cancelled by user", method)
		default:
			return resp, fmt.Errorf("%s: failed with response %d", method, resp.code)
		}
	case <-ctx.Done():
		closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
		_ = b.bus.Call(closeCtx, handle, requestIface+".Close").Err
		closeCancel()
		return response{}, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// Register binds spec under id. The full set of shortcuts registered so far
// is sent with each bind so a portal that replaces the session's set keeps
// the earlier ones.
func (b *Backend) Register(ctx context.Context, spec string, id keybind.ID) error {
	b.mu.Lock()
	shortcuts := make([]shortcutEntry, 0, len(b.bound)+1)
	for boundID, boundSpec := range b.bound {
		if boundID != id {
			shortcuts = append(shortcuts, newEntry(boundID, boundSpec))
		}
	}
	b.mu.Unlock()
	shortcuts = append(shortcuts, newEntry(id, spec))

	_, err := b.request(ctx, b.cfg.BindTimeout, "BindShortcuts", func(token string) []interface{} {
		return []interface{}{
			b.session,
			shortcuts,
			b.parent,
			map[string]dbus.Variant{"handle_token": dbus.MakeVariant(token)},
		}
	})
	if err != nil {
		return fmt.Errorf("%w: binding %q: %w", keybind.ErrPortalSession, spec, err)
	}

	b.mu.Lock()
	b.bound[id] = spec
	b.mu.Unlock()
	b.reg.Register(keybind.Parse(spec), id)
	b.log.Info().Str("shortcut", spec).Uint32("id", uint32(id)).Msg("shortcut bound")
	return nil
}

func newEntry(id keybind.ID, spec string) shortcutEntry {
	sid := strconv.FormatUint(uint64(id), 10)
	return shortcutEntry{
		ID: sid,
		Props: map[string]dbus.Variant{
			"description":       dbus.MakeVariant(sid),
			"preferred_trigger": dbus.MakeVariant(spec),
		},
	}
}

// Unregister is not supported: the portal has no call to unbind a single
// shortcut from a session.
func (b *Backend) Unregister(_ context.Context, id keybind.ID) error {
	return fmt.Errorf("%w: unregistering id %d from the global shortcuts portal", keybind.ErrUnsupported, id)
}

// Shortcut is a binding as reported by the portal.
type Shortcut struct {
	ID          string
	Description string
	Trigger     string
}

// ListShortcuts asks the portal which shortcuts the session holds and which
// triggers the user assigned to them.
func (b *Backend) ListShortcuts(ctx context.Context) ([]Shortcut, error) {
	resp, err := b.request(ctx, b.cfg.RequestTimeout, "ListShortcuts", func(token string) []interface{} {
		return []interface{}{
			b.session,
			map[string]dbus.Variant{"handle_token": dbus.MakeVariant(token)},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", keybind.ErrPortalSession, err)
	}
	v, ok := resp.results["shortcuts"]
	if !ok {
		return nil, nil
	}
	return decodeShortcuts(v)
}

func decodeShortcuts(v dbus.Variant) ([]Shortcut, error) {
	var entries []shortcutEntry
	if err := dbus.Store([]interface{}{v.Value()}, &entries); err != nil {
		return nil, fmt.Errorf("decoding shortcuts: %w", err)
	}
	out := make([]Shortcut, 0, len(entries))
	for _, e := range entries {
		s := Shortcut{ID: e.ID}
		if d, ok := e.Props["description"].Value().(string); ok {
			s.Description = d
		}
		if t, ok := e.Props["trigger_description"].Value().(string); ok {
			s.Trigger = t
		}
		out = append(out, s)
	}
	return out, nil
}

// Close ends the session, stops the signal pump and closes the connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.bus != nil && b.session != "" {
		_ = b.bus.Call(context.Background(), b.session, sessionIface+".Close").Err
	}
	return b.shutdown()
}

func (b *Backend) shutdown() error {
	b.mu.Lock()
	cancel, g := b.cancel, b.group
	b.mu.Unlock()
	if cancel != nil {
		cancel()
		_ = g.Wait()
	}
	if b.conn == nil {
		return nil
	}
	if b.signals != nil {
		b.conn.RemoveSignal(b.signals)
	}
	return b.conn.Close()
}

func (b *Backend) route(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-b.signals:
			if !ok || sig == nil {
				return errors.New("signal channel closed")
			}
			b.handleSignal(sig)
		}
	}
}

func (b *Backend) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case requestIface + ".Response":
		b.deliverResponse(sig)
	case shortcutsIface + ".Activated":
		b.activation(sig, keybind.Pressed)
	case shortcutsIface + ".Deactivated":
		b.activation(sig, keybind.Released)
	case shortcutsIface + ".ShortcutsChanged":
		b.log.Info().Msg("portal reports shortcuts changed")
	}
}

func (b *Backend) deliverResponse(sig *dbus.Signal) {
	b.mu.Lock()
	ch, ok := b.pending[sig.Path]
	b.mu.Unlock()
	if !ok {
		return
	}
	var resp response
	if len(sig.Body) >= 1 {
		resp.code, _ = sig.Body[0].(uint32)
	}
	if len(sig.Body) >= 2 {
		resp.results, _ = sig.Body[1].(map[string]dbus.Variant)
	}
	select {
	case ch <- resp:
	default:
	}
}

// activation handles Activated/Deactivated(o session, s id, t timestamp, a{sv}).
func (b *Backend) activation(sig *dbus.Signal, kind keybind.TriggerKind) {
	if len(sig.Body) < 2 {
		b.log.Warn().Str("signal", sig.Name).Msg("malformed activation signal")
		return
	}
	if session, _ := sig.Body[0].(dbus.ObjectPath); b.session != "" && session != b.session {
		return
	}
	sid, _ := sig.Body[1].(string)
	id, err := strconv.ParseUint(sid, 10, 32)
	if err != nil {
		b.log.Warn().Str("shortcut_id", sid).Msg("ignoring activation for unknown shortcut id")
		return
	}
	b.emit(keybind.Trigger{Kind: kind, ID: keybind.ID(id)})
}

// newToken returns a handle token usable as an object path element.
func newToken() string {
	return "hotbind_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// requestPath predicts the Request object path the portal creates for a
// handle token, so the Response match exists before the call returns.
func requestPath(uniqueName, token string) dbus.ObjectPath {
	sender := strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
	return dbus.ObjectPath(portalPath + "/request/" + sender + "/" + token)
}
