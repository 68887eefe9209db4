package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/session"
	"github.com/verte-zerg/minipair/internal/shortcut"
	statsPkg "github.com/verte-zerg/minipair/internal/stats"
)

const historyLimit = 8

var (
	kanaStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	optionStyle   = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E"))
	correctStyle  = optionStyle.Copy().BorderForeground(lipgloss.Color("#3FB950")).Foreground(lipgloss.Color("#3FB950"))
	wrongStyle    = optionStyle.Copy().BorderForeground(lipgloss.Color("#FF4D4F")).Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	historyOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	historyFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

var toggleLabels = []struct {
	action shortcut.Action
	label  string
}{
	{shortcut.TogglePitch0, "0"},
	{shortcut.TogglePitch1, "1"},
	{shortcut.TogglePitch2, "2"},
	{shortcut.TogglePitch3, "3"},
	{shortcut.TogglePitch4, "4"},
	{shortcut.ToggleDevoiced, "devoiced"},
	{shortcut.ToggleStrict, "strict"},
	{shortcut.TogglePause, "pause after correct"},
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{m.renderTurn()}
	if m.started {
		sections = append(sections, m.renderStats(), m.renderHistory())
	}
	sections = append(sections, m.renderFilters())
	content := lipgloss.JoinVertical(lipgloss.Center, nonEmpty(sections)...)
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTurn() string {
	switch m.state {
	case stateIdle:
		return bannerStyle.Render(fmt.Sprintf("Press %s to start", m.chordLabel(shortcut.Continue)))
	case stateLoading:
		return m.spinner.View() + pendingStyle.Render(" loading")
	case stateEmpty:
		return bannerStyle.Render("No pairs match the selected filters")
	case stateError:
		return errorStyle.Render(fmt.Sprintf("Failed to load pair: %v", m.err)) + "\n" +
			pendingStyle.Render(fmt.Sprintf("Press %s to retry", m.chordLabel(shortcut.Continue)))
	}
	turn := m.session.Active()
	if turn == nil {
		return ""
	}
	lines := []string{kanaStyle.Render(turn.Record.Kana), m.renderOptions(turn)}
	if m.state == stateGraded {
		lines = append(lines, m.renderVerdict())
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderOptions(turn *session.Turn) string {
	buttons := make([]string, len(turn.Options))
	for i, opt := range turn.Options {
		label := fmt.Sprintf("%d  %s", i+1, opt)
		style := optionStyle
		if turn.Graded() {
			switch {
			case i == turn.CorrectIndex:
				style = correctStyle
			case i == turn.Selected():
				style = wrongStyle
			}
		}
		buttons[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m *Model) renderVerdict() string {
	if m.last.Correct {
		return historyOK.Render("Correct")
	}
	verdict := historyFailed.Render("Wrong, answer was " + m.last.Label)
	if session.ShouldAutoAdvance(m.last, m.config.PauseAfterCorrect) {
		return verdict
	}
	return verdict + pendingStyle.Render(fmt.Sprintf("  (%s to continue)", m.chordLabel(shortcut.Continue)))
}

func (m *Model) renderStats() string {
	overall := m.session.Overall()
	rows := [][]string{counterRow("all", overall)}
	for _, cat := range model.Categories {
		rows = append(rows, counterRow(string(cat), m.session.Counter(cat)))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(footerStyle).
		Headers("Category", "Percent", "Count").
		Rows(rows...)
	return t.Render()
}

func counterRow(name string, c session.Counter) []string {
	p := c.Percent()
	percent := lipgloss.NewStyle().Foreground(lipgloss.Color(statsPkg.PercentColor(p))).Render(fmt.Sprintf("%d%%", p))
	if c.Attempted == 0 {
		percent = pendingStyle.Render("0%")
	}
	return []string{name, percent, fmt.Sprintf("%d of %d", c.Correct, c.Attempted)}
}

func (m *Model) renderHistory() string {
	history := m.session.History()
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}
	items := make([]string, len(history))
	for i, h := range history {
		if h.Correct {
			items[i] = historyOK.Render("✓ " + h.Label)
		} else {
			items[i] = historyFailed.Render("✗ " + h.Label)
		}
	}
	return strings.Join(items, "  ")
}

func (m *Model) renderFilters() string {
	f := m.config.Filters
	parts := make([]string, 0, len(toggleLabels))
	for _, t := range toggleLabels {
		var on bool
		switch t.action {
		case shortcut.ToggleDevoiced:
			on = f.Devoiced
		case shortcut.ToggleStrict:
			on = f.Strict
		case shortcut.TogglePause:
			on = m.config.PauseAfterCorrect
		default:
			p, _ := shortcut.PitchToggle(t.action)
			on = f.Pitches[p]
		}
		box := "[ ]"
		style := pendingStyle
		if on {
			box = "[x]"
			style = checkedStyle
		}
		label := t.label
		if _, isPitch := shortcut.PitchToggle(t.action); isPitch {
			label = "pitch" + label
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s %s", m.chordLabel(t.action), box, label)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderFooter() string {
	return footerStyle.Render(m.help.ShortHelpView(m.helpBindings()))
}

func (m *Model) helpBindings() []key.Binding {
	entries := []struct {
		action shortcut.Action
		desc   string
	}{
		{shortcut.AnswerButton1, "answer 1"},
		{shortcut.AnswerButton2, "answer 2"},
		{shortcut.AnswerButton3, "answer 3"},
		{shortcut.Continue, "continue"},
		{shortcut.PlayAudio, "replay"},
		{shortcut.Quit, "quit"},
	}
	out := make([]key.Binding, 0, len(entries))
	for _, e := range entries {
		chord, ok := m.deps.Bindings.ChordFor(e.action)
		if !ok {
			continue
		}
		label := chord.String()
		out = append(out, key.NewBinding(key.WithKeys(label), key.WithHelp(label, e.desc)))
	}
	return out
}

func (m *Model) chordLabel(action shortcut.Action) string {
	chord, ok := m.deps.Bindings.ChordFor(action)
	if !ok {
		return "-"
	}
	return chord.String()
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
