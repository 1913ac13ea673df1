package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/shutter/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var body string
	switch m.State {
	case StateHelp:
		body = m.renderHelp()
	case StateDetail:
		body = m.Detail.View()
	case StateSearching:
		body = m.renderSearch()
	default:
		body = m.List.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.AccentStyle.Bold(true).Render("shutter")
	if m.Term == "" {
		return title
	}

	snap := m.controller.Snapshot()
	info := fmt.Sprintf("%d photos", m.List.RowCount())
	if snap.TotalPages > 0 {
		info += fmt.Sprintf(" · %d/%d pages", len(snap.Loaded), snap.TotalPages)
	}
	if len(snap.InFlight) > 0 {
		info += " " + m.Spinner.View()
	}
	return title + "  " + styles.SubtitleStyle.Render(m.Term) + "  " + styles.DimStyle.Render(info)
}

func (m Model) renderSearch() string {
	bar := m.SearchBar.View()
	rest := max(m.Height-ChromeHeight-lipgloss.Height(bar)-1, 3)
	if m.List.RowCount() == 0 {
		return bar
	}
	list := *m.List
	list.SetSize(m.Width, rest)
	return bar + "\n" + list.View()
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		return style.Render(styles.Truncate(m.StatusMsg, max(m.Width, 10)))
	}
	switch m.State {
	case StateSearching:
		return styles.DimStyle.Render("enter search · tab complete · ↑/↓ history · esc cancel")
	case StateDetail:
		return styles.DimStyle.Render("esc back · q quit")
	}
	return m.Help.ShortHelpView(Keys.ShortHelp())
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, col := range Keys.FullHelp() {
		for _, binding := range col {
			h := binding.Help()
			b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)))
			b.WriteString(styles.HelpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.DimStyle.Render("press any key to return"))
	return b.String()
}
