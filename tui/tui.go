// Package tui is the full-screen Bubble Tea front end. It renders the scene,
// stat bars, choices and recent log for an engine.Engine and maps single
// key presses onto engine steps.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/lastrep/engine"
	"github.com/nathoo/lastrep/types"
)

// Minimum terminal size for the full layout.
const (
	MinWidth  = 55
	MinHeight = 22
)

// keyMap lists the bindings shown in the help line.
type keyMap struct {
	Choose    key.Binding
	Look      key.Binding
	Inventory key.Binding
	Restart   key.Binding
	Trace     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Choose:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "choose")),
		Look:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "look")),
		Inventory: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inventory")),
		Restart:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart"), key.WithDisabled()),
		Trace:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trace")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Look, k.Inventory, k.Restart, k.Trace, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// Model is the Bubble Tea model for the game screen.
type Model struct {
	engine *engine.Engine

	viewport viewport.Model
	help     help.Model
	keys     keyMap

	notice []string // output of the last meta action, shown under the log
	traced []string // trace lines for the last step

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine) Model {
	m := Model{
		engine: eng,
		help:   help.New(),
		keys:   defaultKeyMap(),
	}
	m.syncKeys()
	return m
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine) error {
	p := tea.NewProgram(New(eng), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // status bar + help line
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.help.Width = m.width
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Look):
			m.showNotice(m.engine.Look().Output)

		case key.Matches(msg, m.keys.Inventory):
			m.showNotice(m.engine.Inventory().Output)

		case key.Matches(msg, m.keys.Restart):
			seed := m.engine.State.Seed + 1
			m.engine.Restart(seed)
			m.showNotice([]string{styledSystemMsg(fmt.Sprintf("New season (seed %d).", seed))})

		case key.Matches(msg, m.keys.Trace):
			m.trace = !m.trace
			state := "disabled"
			if m.trace {
				state = "enabled"
			}
			m.showNotice([]string{styledSystemMsg("Trace output " + state + ".")})

		case key.Matches(msg, m.keys.Choose):
			m.choose(msg.String())

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.syncKeys()
		m.refreshViewport()
	}
	return m, nil
}

// choose steps the engine with a choice key.
func (m *Model) choose(k string) {
	m.notice = nil
	m.traced = nil

	result := m.engine.Step(k)
	if result.Ignored {
		if m.engine.Ended() {
			m.notice = result.Output
		} else {
			m.notice = []string{styledSystemMsg(fmt.Sprintf("No choice %q here.", k))}
		}
		return
	}
	if m.trace {
		m.traced = m.formatTrace(result)
	}
}

func (m *Model) showNotice(lines []string) {
	m.notice = lines
	m.traced = nil
}

// syncKeys enables the bindings that make sense for the current state.
func (m *Model) syncKeys() {
	m.keys.Restart.SetEnabled(m.engine.Ended())
}

// refreshViewport rebuilds the body at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.body())
	m.viewport.GotoTop()
}

// body renders the scene or ending screen.
func (m Model) body() string {
	width := m.width
	if width < 10 {
		width = 10
	}
	snap := m.engine.Snapshot()

	var b strings.Builder
	if end := m.engine.Ending(); end != nil {
		b.WriteString(styleTitle.Render(end.Title) + "\n\n")
		for _, line := range end.Lines {
			b.WriteString(styleText.Render(wordWrap(line, width)) + "\n")
		}
		b.WriteString("\n" + renderStats(snap.Stats) + "\n\n")
		b.WriteString(styleSystem.Render("Press r to restart or q to quit.") + "\n")
	} else {
		scene := m.engine.Scene()
		b.WriteString(styleTitle.Render(scene.Title) + "\n")
		if art := m.engine.Art(); art != "" {
			b.WriteString(styleArt.Render(art) + "\n")
		}
		b.WriteString("\n")
		for _, line := range scene.Text {
			b.WriteString(styleText.Render(wordWrap(line, width)) + "\n")
		}
		b.WriteString("\n" + renderStats(snap.Stats) + "\n\n")
		for _, ch := range scene.Choices {
			b.WriteString(styleChoiceKey.Render("["+ch.Key+"]") + " " + wordWrap(ch.Label, width-4) + "\n")
		}
	}

	if recent := m.engine.RecentLog(); len(recent) > 0 {
		b.WriteString("\n")
		for _, line := range recent {
			b.WriteString(renderLineKind(wordWrap(line, width), classifyLine(line)) + "\n")
		}
	}
	for _, line := range m.notice {
		b.WriteString(wordWrap(line, width) + "\n")
	}
	for _, line := range m.traced {
		b.WriteString(renderLineKind(line, kindTrace) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the status bar, body and help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	if m.width < MinWidth || m.height < MinHeight {
		return styleError.Render(wordWrap(fmt.Sprintf(
			"Terminal too small (%dx%d). Resize to at least %dx%d, or press q to quit.",
			m.width, m.height, MinWidth, MinHeight), m.width))
	}

	return m.renderStatusBar() + "\n" + m.viewport.View() + "\n" + m.help.View(m.keys)
}

func (m Model) formatTrace(result types.Result) []string {
	var lines []string
	if result.Effect != nil {
		lines = append(lines, fmt.Sprintf("[trace] Effect: %s (%s)", result.Effect.Name, result.Effect.Kind))
	}
	for _, e := range result.Events {
		lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
	}
	lines = append(lines, fmt.Sprintf("[trace] RNG position: %d", m.engine.State.RNG.Position()))
	return lines
}

// viewportKeyMap returns a viewport keymap that scrolls without stealing
// the game keys.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}
