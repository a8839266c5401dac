package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/voidowl/portfolio/internal/rotate"
)

const frameInterval = 16 * time.Millisecond

// runMsg carries engine work onto the Bubble Tea update goroutine.
type runMsg func()

type frameMsg time.Time

// teaDispatcher posts engine ticks through the program's message queue.
type teaDispatcher struct {
	send func(tea.Msg)
}

func (d teaDispatcher) Post(fn func()) bool {
	d.send(runMsg(fn))
	return true
}

var (
	prefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// previewModel reveals each unit once its stagger delay has elapsed since the
// last index change.
type previewModel struct {
	settings  heroSettings
	engine    *rotate.Engine
	dispatch  rotate.Dispatcher
	changedAt time.Time
	now       time.Time
	animating bool
}

func newPreviewModel(settings heroSettings, dispatch rotate.Dispatcher, opts ...rotate.Option) (*previewModel, error) {
	m := &previewModel{settings: settings, dispatch: dispatch}
	cfg := settings.Rotate
	cfg.OnIndexChange = m.onIndexChange
	engine, err := rotate.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	m.engine = engine
	m.changedAt = time.Now()
	m.now = m.changedAt
	m.animating = true
	return m, nil
}

func (m *previewModel) onIndexChange(int) {
	m.changedAt = time.Now()
	m.now = m.changedAt
	m.animating = true
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init implements tea.Model.
func (m *previewModel) Init() tea.Cmd {
	m.engine.Start(m.dispatch)
	return frame()
}

// Update implements tea.Model.
func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	wasAnimating := m.animating
	switch msg := msg.(type) {
	case runMsg:
		msg()
	case frameMsg:
		m.now = time.Time(msg)
		if m.revealed() {
			m.animating = false
			return m, nil
		}
		return m, frame()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.engine.Stop()
			return m, tea.Quit
		case "n", "right", "l":
			m.engine.Advance()
		case "p", "left", "h":
			m.engine.Retreat()
		case "r":
			m.engine.Reset()
		default:
			if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
				m.engine.JumpTo(int(s[0] - '0'))
			}
		}
	}
	if m.animating && !wasAnimating {
		return m, frame()
	}
	return m, nil
}

func (m *previewModel) revealed() bool {
	elapsed := m.now.Sub(m.changedAt)
	for _, u := range m.engine.Units() {
		if m.engine.Delay(u) > elapsed {
			return false
		}
	}
	return true
}

// View implements tea.Model.
func (m *previewModel) View() string {
	elapsed := m.now.Sub(m.changedAt)
	var b strings.Builder
	units := m.engine.Units()
	for i, u := range units {
		if m.engine.Delay(u) <= elapsed {
			b.WriteString(u.Content)
		} else {
			b.WriteString(strings.Repeat(" ", lipgloss.Width(u.Content)))
		}
		b.WriteString(separatorAfter(m.settings.Rotate.Split, u, i == len(units)-1))
	}

	word := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(m.settings.colorAt(m.engine.Index()))).
		Render(b.String())

	help := fmt.Sprintf("%d/%d  n next  p prev  r reset  0-9 jump  q quit", m.engine.Index()+1, m.engine.Len())
	return "\n  " + prefixStyle.Render(m.settings.Prefix) + " " + word + "\n\n  " + helpStyle.Render(help) + "\n"
}

func runPreview(_ *cobra.Command, _ []string) error {
	cfg := loadServerConfig()
	settings, err := loadHeroSettings(resolveHeroPath(cfg))
	if err != nil {
		return err
	}

	var p *tea.Program
	dispatch := teaDispatcher{send: func(msg tea.Msg) { p.Send(msg) }}
	m, err := newPreviewModel(settings, dispatch)
	if err != nil {
		return fmt.Errorf("failed to build headline: %w", err)
	}
	p = tea.NewProgram(m)
	_, err = p.Run()
	// The update loop has exited, so stopping here cannot race with it.
	m.engine.Stop()
	return err
}
