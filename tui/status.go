package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lastrep/engine/route"
	"github.com/nathoo/lastrep/types"
)

// barWidth is the number of cells in a stat bar.
const barWidth = 20

// renderStatusBar produces a full-width inverted status line showing the
// game title, the current week, cash and turn count.
func (m Model) renderStatusBar() string {
	snap := m.engine.Snapshot()
	s := snap.Stats

	left := fmt.Sprintf(" %s | %s", m.engine.Graph.Game.Title, m.engine.Scene().Title)
	right := fmt.Sprintf("Week %d/%d | Cash $%d | T:%d ", s.Week, route.ShowcaseWeek, s.Cash, snap.Turn)
	if snap.Ended {
		left = fmt.Sprintf(" %s | Season over", m.engine.Graph.Game.Title)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

// renderStats draws one bar per bounded stat plus the latch markers.
func renderStats(s types.Stats) string {
	lines := []string{
		statBar("Stamina", s.Stamina, false),
		statBar("Injury", s.Injury, true),
		statBar("Confidence", s.Confidence, false),
		statBar("Reputation", s.Reputation, false),
	}

	var marks []string
	if s.InjuryFlag {
		marks = append(marks, styleWarning.Render("injury flare"))
	}
	if s.SleepDebt > 0 {
		marks = append(marks, styleWarning.Render(fmt.Sprintf("sleep debt %d", s.SleepDebt)))
	}
	if s.SignedGoodDeal {
		marks = append(marks, styleBarGood.Render("good deal"))
	}
	if s.SignedBadDeal {
		marks = append(marks, styleBarBad.Render("bad deal"))
	}
	if s.ScandalFlag {
		marks = append(marks, styleError.Render("scandal"))
	}
	if len(marks) > 0 {
		lines = append(lines, strings.Join(marks, styleSystem.Render(" · ")))
	}
	return strings.Join(lines, "\n")
}

// statBar renders "Label  ████░░░░  55". When inverted, a high value is bad.
func statBar(label string, value int, inverted bool) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	filled := value * barWidth / 100

	health := value
	if inverted {
		health = 100 - value
	}
	fill := styleBarGood
	switch {
	case health < 30:
		fill = styleBarBad
	case health < 55:
		fill = styleBarMid
	}

	return fmt.Sprintf("%-10s %s%s %3d",
		label,
		fill.Render(strings.Repeat("█", filled)),
		styleBarRest.Render(strings.Repeat("░", barWidth-filled)),
		value,
	)
}
