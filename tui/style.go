package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lastrep/engine/tick"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228"))

	styleArt = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	styleText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleChoiceKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("34"))

	styleLog = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Italic(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleBarGood = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	styleBarMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleBarBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleBarRest = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// lineKind identifies the type of a log line for styling.
type lineKind int

const (
	kindLog lineKind = iota
	kindWarning
	kindSystem
	kindTrace
)

// classifyLine determines what kind of log line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case line == tick.FlareLog, line == tick.BillsLog:
		return kindWarning
	default:
		return kindLog
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindWarning:
		return styleWarning.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleLog.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
