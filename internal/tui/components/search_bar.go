package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shutter/internal/search"
	"github.com/mmcdole/shutter/internal/tui/styles"
)

// maxSuggestions bounds the history suggestions shown under the input
const maxSuggestions = 5

// SearchBar is the search term input with history suggestions
type SearchBar struct {
	input       textinput.Model
	history     []string // most recent first
	suggestions []string
	cursor      int // -1 = no suggestion selected
	width       int
}

// NewSearchBar creates a search bar
func NewSearchBar() SearchBar {
	ti := textinput.New()
	ti.Placeholder = "Search photos..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "search: "
	ti.PromptStyle = styles.PromptStyle
	ti.TextStyle = styles.InputTextStyle
	ti.PlaceholderStyle = styles.DimStyle

	return SearchBar{input: ti, cursor: -1}
}

// Focus shows the bar ready for typing, prefilled with term
func (s *SearchBar) Focus(term string) tea.Cmd {
	s.input.SetValue(term)
	s.input.CursorEnd()
	s.refreshSuggestions()
	return s.input.Focus()
}

func (s *SearchBar) Blur() { s.input.Blur() }

func (s SearchBar) Focused() bool { return s.input.Focused() }

// SetHistory sets the terms offered as suggestions
func (s *SearchBar) SetHistory(terms []string) {
	s.history = terms
	s.refreshSuggestions()
}

func (s *SearchBar) SetWidth(width int) {
	s.width = width
	s.input.Width = max(width-len(s.input.Prompt)-2, 10)
}

// Value returns the term to search for: the highlighted suggestion if any,
// otherwise the typed text.
func (s SearchBar) Value() string {
	if s.cursor >= 0 && s.cursor < len(s.suggestions) {
		return s.suggestions[s.cursor]
	}
	return strings.TrimSpace(s.input.Value())
}

// Update handles typing and suggestion navigation
func (s *SearchBar) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "down", "ctrl+n":
			if s.cursor < len(s.suggestions)-1 {
				s.cursor++
			}
			return nil
		case "up", "ctrl+p":
			if s.cursor >= 0 {
				s.cursor--
			}
			return nil
		case "tab":
			if len(s.suggestions) > 0 {
				idx := max(s.cursor, 0)
				s.input.SetValue(s.suggestions[idx])
				s.input.CursorEnd()
				s.refreshSuggestions()
			}
			return nil
		}
	}

	prev := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != prev {
		s.refreshSuggestions()
	}
	return cmd
}

func (s *SearchBar) refreshSuggestions() {
	s.cursor = -1
	s.suggestions = search.Suggest(s.input.Value(), s.history)
	if len(s.suggestions) > maxSuggestions {
		s.suggestions = s.suggestions[:maxSuggestions]
	}
}

// Suggestions returns the suggestions currently shown
func (s SearchBar) Suggestions() []string { return s.suggestions }

func (s SearchBar) View() string {
	var b strings.Builder
	b.WriteString(s.input.View())
	if !s.input.Focused() {
		return b.String()
	}
	for i, term := range s.suggestions {
		b.WriteString("\n")
		line := styles.Truncate(term, max(s.width-4, 1))
		if i == s.cursor {
			b.WriteString(styles.SuggestionStyle.Inherit(styles.AccentStyle).Render("› " + line))
		} else {
			b.WriteString(styles.SuggestionStyle.Render("  " + line))
		}
	}
	return b.String()
}
