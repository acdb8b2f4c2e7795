package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotbind/config"
	"hotbind/hotkey"
	"hotbind/keybind"
	"hotbind/log"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--logpath", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommand(t *testing.T) {
	out, _, err := runCmd(t, "parse", "m+shift+ctrl", "alt+f4")
	require.NoError(t, err)
	assert.Equal(t, "m+shift+ctrl\tshift+ctrl+m\nalt+f4\talt+f4\n", out)
}

func TestParseCommandRejectsTwoKeys(t *testing.T) {
	out, errOut, err := runCmd(t, "parse", "ctrl+a+b", "ctrl+m")
	require.Error(t, err)
	assert.Contains(t, errOut, "ctrl+a+b")
	assert.Contains(t, out, "ctrl+m")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hotbind dev\n", out)
}

func startFakeApp(t *testing.T) (*app, *hotkey.FakeBackend) {
	t.Helper()
	fb := hotkey.NewFakeBackend()
	e := hotkey.New(hotkey.Config{Wayland: true}, hotkey.WithPortalStarter(fb.Starter()))
	t.Cleanup(func() { e.Close() })
	require.NoError(t, e.Start(context.Background(), hotkey.Handles{}))
	return &app{
		engine:    e,
		logger:    zerolog.Nop(),
		shortcuts: make(map[keybind.ID]string),
	}, fb
}

func TestApplyRegistersAdded(t *testing.T) {
	a, fb := startFakeApp(t)

	a.apply(context.Background(), config.DiffBindings(nil, []config.Binding{
		{Shortcut: "ctrl+m", ID: 1},
		{Shortcut: "alt+k", ID: 2},
	}))

	assert.Equal(t, "ctrl+m", fb.Spec(1))
	assert.Equal(t, "alt+k", fb.Spec(2))
	assert.Equal(t, "alt+k", a.shortcut(2))
	assert.Equal(t, 2, a.engine.Registry().Len())
}

func TestApplyKeepsBindingWhenUnregisterUnsupported(t *testing.T) {
	a, _ := startFakeApp(t)
	old := []config.Binding{{Shortcut: "ctrl+m", ID: 1}}
	a.apply(context.Background(), config.DiffBindings(nil, old))

	a.apply(context.Background(), config.DiffBindings(old, nil))

	assert.Equal(t, "ctrl+m", a.shortcut(1))
}

func TestApplyLogsThroughContextLogger(t *testing.T) {
	a, _ := startFakeApp(t)
	var buf bytes.Buffer
	ctx := log.WithComponent(log.WithContext(context.Background(), zerolog.New(&buf)), "bindings")
	old := []config.Binding{{Shortcut: "ctrl+m", ID: 1}}
	a.apply(ctx, config.DiffBindings(nil, old))

	a.apply(ctx, config.DiffBindings(old, nil))

	assert.Contains(t, buf.String(), `"component":"bindings"`)
	assert.Contains(t, buf.String(), "binding stays until restart")
}

func TestTUITriggerUpdatesState(t *testing.T) {
	m := newTUIModel([]config.Binding{{Shortcut: "alt+k", ID: 2}, {Shortcut: "ctrl+m", ID: 1}}, 300*time.Millisecond)
	assert.Equal(t, keybind.ID(1), keybind.ID(m.bindings[0].ID))

	t0 := time.Unix(100, 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	next, _ = next.Update(BackendMsg{Kind: hotkey.KindRawInput})
	next, _ = next.Update(TriggerMsg{Trigger: keybind.PressedTrigger(1), Shortcut: "ctrl+m", At: t0})
	m = next.(tuiModel)

	assert.Equal(t, 1, m.count)
	assert.True(t, m.hybrid.Holding(1))
	view := m.View()
	assert.Contains(t, view, "raw-input")
	assert.Contains(t, view, "held")
	assert.Contains(t, view, "ctrl+m")

	next, _ = m.Update(TriggerMsg{Trigger: keybind.ReleasedTrigger(1), Shortcut: "ctrl+m", At: t0.Add(time.Second)})
	m = next.(tuiModel)
	assert.False(t, m.hybrid.Holding(1))
	assert.True(t, strings.Contains(m.events[len(m.events)-1], "hold stop"))
}

func TestTUIQuit(t *testing.T) {
	m := newTUIModel(nil, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
