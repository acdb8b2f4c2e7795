package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"hotbind/config"
	"hotbind/hotkey"
	"hotbind/keybind"
)

// TUI message types
type BackendMsg struct{ Kind hotkey.Kind }
type BindingsMsg struct{ Bindings []config.Binding }
type TriggerMsg struct {
	Trigger  keybind.Trigger
	Shortcut string
	At       time.Time
}
type ErrorMsg struct{ Err error }

const maxEvents = 200

type tuiModel struct {
	backend       hotkey.Kind
	bindings      []config.Binding
	hybrid        *hotkey.Hybrid
	events        []string
	count         int
	err           error
	width, height int
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	heldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	toggledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pressStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	releaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	gestureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

func newTUIModel(bindings []config.Binding, longPress time.Duration) tuiModel {
	return tuiModel{
		bindings: sortedBindings(bindings),
		hybrid:   hotkey.NewHybrid(longPress),
	}
}

func sortedBindings(bs []config.Binding) []config.Binding {
	out := append([]config.Binding(nil), bs...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case BackendMsg:
		m.backend = msg.Kind

	case BindingsMsg:
		m.bindings = sortedBindings(msg.Bindings)

	case TriggerMsg:
		m.count++
		style := pressStyle
		if msg.Trigger.Kind == keybind.Released {
			style = releaseStyle
		}
		line := style.Render(fmt.Sprintf("%s %-8s %-3d %s",
			msg.At.Format("15:04:05.000"), msg.Trigger.Kind, msg.Trigger.ID, msg.Shortcut))
		if g, ok := m.hybrid.Observe(msg.Trigger, msg.At); ok {
			line += " " + gestureStyle.Render(fmt.Sprintf("[%s %s]", g.Mode, g.Phase))
		}
		m.events = append(m.events, line)
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}

	case ErrorMsg:
		m.err = msg.Err
	}
	return m, nil
}

func (m tuiModel) bindingState(id keybind.ID) string {
	switch {
	case m.hybrid.Holding(id):
		return heldStyle.Render("● held")
	case m.hybrid.IsToggle(id):
		return toggledStyle.Render("◐ toggled")
	default:
		return idleStyle.Render("○ idle")
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = 44

	var left []string
	left = append(left, headerStyle.Render("hotbind "+version))
	left = append(left, idleStyle.Render("backend: "+m.backend.String()))
	left = append(left, "")
	left = append(left, headerStyle.Render(fmt.Sprintf("%-4s %-22s %s", "ID", "SHORTCUT", "STATE")))
	if len(m.bindings) == 0 {
		left = append(left, idleStyle.Render("no bindings configured"))
	}
	for _, b := range m.bindings {
		left = append(left, fmt.Sprintf("%-4d %-22s %s", b.ID, b.Identity(), m.bindingState(keybind.ID(b.ID))))
	}
	if m.err != nil {
		left = append(left, "", errorStyle.Render(m.err.Error()))
	}
	left = append(left, "", helpStyle.Render("q or ctrl+c to quit"))

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		Render(strings.Join(left, "\n"))

	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	var right strings.Builder
	right.WriteString(headerStyle.Render(fmt.Sprintf("Triggers (%d)", m.count)) + "\n\n")
	rows := m.height - 2
	if rows < 1 {
		rows = 1
	}
	events := m.events
	if len(events) > rows {
		events = events[len(events)-rows:]
	}
	if len(events) == 0 {
		right.WriteString(idleStyle.Render("Press a bound shortcut..."))
	}
	for _, e := range events {
		right.WriteString(e + "\n")
	}
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runWatch drives the app with the live view attached.
func runWatch(ctx context.Context, a *app) error {
	cfg := a.cfgMgr.Get()
	p := tea.NewProgram(newTUIModel(cfg.Bindings, cfg.LongPress), tea.WithAltScreen(), tea.WithContext(ctx))

	a.onBackend = func(k hotkey.Kind) { p.Send(BackendMsg{Kind: k}) }
	a.onTrigger = func(t keybind.Trigger, shortcut string) {
		p.Send(TriggerMsg{Trigger: t, Shortcut: shortcut, At: time.Now()})
	}
	a.onChange = func(bs []config.Binding) { p.Send(BindingsMsg{Bindings: bs}) }

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		err := a.run(ctx)
		if err != nil {
			p.Send(ErrorMsg{Err: err})
		}
		runErr <- err
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	cancel()
	return <-runErr
}
