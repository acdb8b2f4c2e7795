// Package doctor runs environment diagnostics for the hotkey backends.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"hotbind/hotkey"
	"hotbind/keybind"
	"hotbind/keymap"
	"hotbind/portal"
	"hotbind/rawinput"
)

type Options struct {
	Engine hotkey.Config
	// Shortcut is pressed by the user, or synthesized with SelfTest.
	Shortcut string
	SelfTest bool
	Timeout  time.Duration
	Out      io.Writer
	Log      zerolog.Logger

	engineOpts []hotkey.Option
}

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// errSkip marks a check that does not apply to this session.
var errSkip = errors.New("skipped")

type check struct {
	name string
	run  func() (string, error)
}

// Run executes the diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Shortcut == "" {
		opts.Shortcut = "ctrl+shift+k"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	resetTerminal()
	setupInterruptHandler()
	styled := isTerminal()

	fmt.Fprintln(opts.Out, render(styled, titleStyle, "hotbind doctor - hotkey backend diagnostics"))

	checks := []check{
		{"Session", func() (string, error) { return checkSession(opts.Engine) }},
		{"Global shortcuts portal", func() (string, error) { return checkPortal(opts.Engine) }},
		{"Keyboard layout", func() (string, error) { return checkKeymap(opts.Engine.Display) }},
		{"evdev access", rawinput.DiagnoseEvdev},
		{"Native hooks", checkHooks},
		{"Hotkey detection", func() (string, error) { return checkHotkey(opts) }},
	}

	failed := 0
	for i, c := range checks {
		fmt.Fprintf(opts.Out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		detail, err := c.run()
		switch {
		case errors.Is(err, errSkip):
			fmt.Fprintf(opts.Out, "  %s %s\n", render(styled, skipStyle, "SKIP"), detail)
		case err != nil:
			failed++
			fmt.Fprintf(opts.Out, "  %s %v\n", render(styled, failStyle, "FAIL"), err)
		default:
			fmt.Fprintf(opts.Out, "  %s %s\n", render(styled, passStyle, "PASS"), detail)
		}
	}

	fmt.Fprintln(opts.Out)
	if failed == 0 {
		fmt.Fprintln(opts.Out, "All checks passed!")
		return 0
	}
	fmt.Fprintf(opts.Out, "%d check(s) failed. See details above.\n", failed)
	return 1
}

func render(styled bool, s lipgloss.Style, text string) string {
	if !styled {
		return text
	}
	return s.Render(text)
}

func checkSession(cfg hotkey.Config) (string, error) {
	var parts []string
	if cfg.Wayland {
		parts = append(parts, "Wayland session")
	} else if cfg.Display != "" {
		parts = append(parts, "X11 display "+cfg.Display)
	} else {
		parts = append(parts, "no graphical session detected")
	}
	if cfg.PreferPortal && !cfg.Wayland {
		parts = append(parts, "portal preferred")
	}
	backend := "raw input"
	if cfg.Wayland || cfg.PreferPortal {
		backend = "portal, falling back to raw input"
	}
	parts = append(parts, "backend order: "+backend)
	return strings.Join(parts, "; "), nil
}

func checkPortal(cfg hotkey.Config) (string, error) {
	version, err := portal.Probe()
	if err != nil {
		if !cfg.Wayland && !cfg.PreferPortal {
			return "not used on X11: " + err.Error(), errSkip
		}
		return "", fmt.Errorf("GlobalShortcuts portal unavailable: %w", err)
	}
	return fmt.Sprintf("org.freedesktop.portal.GlobalShortcuts version %d", version), nil
}

// layoutProbe are evdev codes whose text tells common layouts apart.
var layoutProbe = []uint16{16, 17, 21, 30, 44}

func checkKeymap(display string) (string, error) {
	km, err := keymap.FromX11(display)
	if err != nil {
		return "X keymap unavailable, raw input will assume US QWERTY", errSkip
	}
	var b strings.Builder
	for _, code := range layoutProbe {
		b.WriteString(km.Text(code))
	}
	return fmt.Sprintf("%s keymap, top-left keys read %q", km.Source(), b.String()), nil
}

func checkHooks() (string, error) {
	var avail []string
	if rawinput.UIOHookAvailable() {
		avail = append(avail, hotkey.HookUIOHook)
	}
	if rawinput.GrabAvailable() {
		avail = append(avail, hotkey.HookGrab)
	}
	if _, err := rawinput.DiagnoseEvdev(); err == nil {
		avail = append(avail, hotkey.HookEvdev)
	}
	if len(avail) == 0 {
		return "", errors.New("no raw input hook available in this build")
	}
	return "available: " + strings.Join(avail, ", "), nil
}

func checkHotkey(opts Options) (string, error) {
	identity, err := keybind.ParseStrict(opts.Shortcut)
	if err != nil {
		return "", err
	}

	e := hotkey.New(opts.Engine, append([]hotkey.Option{hotkey.WithLogger(opts.Log)}, opts.engineOpts...)...)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startErr := make(chan error, 1)
	go func() { startErr <- e.Start(ctx, hotkey.Handles{}) }()

	if err := waitActive(e, startErr); err != nil {
		return "", err
	}
	if err := e.Register(ctx, opts.Shortcut, 1); err != nil {
		return "", fmt.Errorf("could not register %s: %w", opts.Shortcut, err)
	}

	if opts.SelfTest {
		fmt.Fprintf(opts.Out, "  Synthesizing %s...\n", identity)
		go func() {
			if err := synthesize(identity); err != nil {
				opts.Log.Warn().Err(err).Msg("synthesized key press failed")
			}
		}()
	} else {
		fmt.Fprintf(opts.Out, "  Press %s...\n", identity)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, opts.Timeout)
	defer waitCancel()
	for {
		t, err := e.Next(waitCtx)
		if err != nil {
			select {
			case err := <-startErr:
				if err != nil {
					return "", fmt.Errorf("backend stopped: %w", err)
				}
			default:
			}
			return "", fmt.Errorf("timeout waiting for %s on %s backend", identity, e.Active())
		}
		if t.Kind == keybind.Pressed && t.ID == 1 {
			resetTerminal()
			detail := fmt.Sprintf("%s detected via %s backend", identity, e.Active())
			if trigger := assignedTrigger(ctx, e); trigger != "" {
				detail += fmt.Sprintf(" (desktop trigger: %s)", trigger)
			}
			return detail, nil
		}
	}
}

// assignedTrigger returns the trigger the desktop assigned to the test
// shortcut, when the backend can tell.
func assignedTrigger(ctx context.Context, e *hotkey.Engine) string {
	list, err := e.ListShortcuts(ctx)
	if err != nil {
		return ""
	}
	for _, s := range list {
		if s.ID == "1" {
			return s.Trigger
		}
	}
	return ""
}

// waitActive waits for the engine to pick a backend or fail starting one.
func waitActive(e *hotkey.Engine, startErr <-chan error) error {
	select {
	case <-e.Ready():
		return nil
	case err := <-startErr:
		if err == nil {
			return nil
		}
		return fmt.Errorf("no backend started: %w", err)
	case <-time.After(5 * time.Second):
		return errors.New("timeout waiting for a backend to start")
	}
}
