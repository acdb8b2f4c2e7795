package doctor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hotbind/hotkey"
	"hotbind/keymap"
	"hotbind/rawinput"
)

func TestCheckSession(t *testing.T) {
	tests := []struct {
		name string
		cfg  hotkey.Config
		want []string
	}{
		{"wayland", hotkey.Config{Wayland: true}, []string{"Wayland session", "portal, falling back"}},
		{"x11", hotkey.Config{Display: ":0"}, []string{"X11 display :0", "backend order: raw input"}},
		{"x11 portal", hotkey.Config{Display: ":0", PreferPortal: true}, []string{"portal preferred", "falling back"}},
		{"headless", hotkey.Config{}, []string{"no graphical session"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkSession(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("%q missing %q", got, w)
				}
			}
		})
	}
}

func TestRenderPlain(t *testing.T) {
	if got := render(false, passStyle, "PASS"); got != "PASS" {
		t.Errorf("got %q, want plain PASS", got)
	}
}

func TestCheckHotkeyRejectsBadShortcut(t *testing.T) {
	_, err := checkHotkey(Options{Shortcut: "ctrl+a+b"})
	if err == nil {
		t.Fatal("expected error for shortcut with two keys")
	}
}

func TestCheckHotkeyReportsHookFailure(t *testing.T) {
	hook := rawinput.NewFakeHook()
	hook.StartErr = errors.New("hook refused")

	_, err := checkHotkey(Options{
		Shortcut:   "ctrl+m",
		Timeout:    time.Second,
		Out:        io.Discard,
		Log:        zerolog.Nop(),
		engineOpts: []hotkey.Option{
			hotkey.WithHook(hook),
			hotkey.WithKeymapLoader(func() (*keymap.Keymap, error) { return keymap.Static(), nil }),
		},
	})

	if err == nil {
		t.Fatal("expected hook start failure")
	}
	if !strings.Contains(err.Error(), "hook refused") {
		t.Errorf("error %q does not carry the hook failure", err)
	}
	if strings.Contains(err.Error(), "timeout") {
		t.Errorf("hook failure reported as timeout: %q", err)
	}
}

func TestCheckHotkeyReportsDesktopTrigger(t *testing.T) {
	fb := hotkey.NewFakeBackend()
	go func() {
		for fb.Spec(1) == "" {
			time.Sleep(time.Millisecond)
		}
		fb.Activate(1)
	}()

	got, err := checkHotkey(Options{
		Engine:     hotkey.Config{Wayland: true},
		Shortcut:   "ctrl+m",
		Timeout:    2 * time.Second,
		Out:        io.Discard,
		Log:        zerolog.Nop(),
		engineOpts: []hotkey.Option{hotkey.WithPortalStarter(fb.Starter())},
	})

	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "via portal backend") || !strings.Contains(got, "desktop trigger: ctrl+m") {
		t.Errorf("unexpected detail %q", got)
	}
}
