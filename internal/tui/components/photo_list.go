package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shutter/internal/domain"
	"github.com/mmcdole/shutter/internal/presenter"
	"github.com/mmcdole/shutter/internal/search"
	"github.com/mmcdole/shutter/internal/tui/styles"
)

// Layout constants for the photo list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// RowSource resolves absolute rows to photos. Unloaded rows report false.
type RowSource interface {
	RowAt(row int) (*domain.Photo, bool)
}

// PhotoList is a scrollable list over a paginated result set. Its length
// is the known row count; rows whose page has not arrived render as
// placeholders.
type PhotoList struct {
	source RowSource
	newRow func(domain.Photo) *presenter.Row

	// Row presenters by absolute row, created on first display
	rows map[int]*presenter.Row

	count int

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	title   string
	loading bool
	spinner string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	matches      []search.RowMatch
}

// NewPhotoList creates a list reading rows from source
func NewPhotoList(source RowSource, newRow func(domain.Photo) *presenter.Row) *PhotoList {
	ti := textinput.New()
	ti.Placeholder = "type to filter loaded rows..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.PromptStyle
	ti.TextStyle = styles.InputTextStyle

	return &PhotoList{
		source:      source,
		newRow:      newRow,
		rows:        make(map[int]*presenter.Row),
		filterInput: ti,
	}
}

// Reset empties the list for a new search
func (l *PhotoList) Reset(title string) {
	l.title = title
	l.rows = make(map[int]*presenter.Row)
	l.count = 0
	l.cursor = 0
	l.offset = 0
	l.clearFilter()
}

// SetRowCount updates the number of rows the list spans
func (l *PhotoList) SetRowCount(n int) {
	if n < 0 {
		n = 0
	}
	l.count = n
	if l.cursor >= n {
		l.cursor = max(n-1, 0)
	}
	l.ensureVisible()
}

// RowCount returns the number of rows the list spans
func (l *PhotoList) RowCount() int { return l.count }

func (l *PhotoList) SetLoading(loading bool) { l.loading = loading }

// SetSpinner sets the rendered spinner frame shown while loading
func (l *PhotoList) SetSpinner(view string) { l.spinner = view }

func (l *PhotoList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// Update handles navigation and filter keys
func (l *PhotoList) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if l.filterActive && l.filterInput.Focused() {
		switch keyMsg.String() {
		case "esc":
			l.clearFilter()
			return nil
		case "enter":
			l.filterInput.Blur()
			return nil
		case "backspace":
			if l.filterInput.Value() == "" {
				l.clearFilter()
				return nil
			}
		}
		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	if l.filterActive {
		switch keyMsg.String() {
		case "esc":
			l.clearFilter()
			return nil
		case "/":
			l.filterInput.Focus()
			return nil
		}
	}

	count := l.visibleCount()
	if count == 0 {
		return nil
	}

	switch keyMsg.String() {
	case "j", "down":
		if l.cursor < count-1 {
			l.cursor++
		}
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
		}
	case "g", "home":
		l.cursor = 0
	case "G", "end":
		l.cursor = count - 1
	case "ctrl+d", "pgdown":
		l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
	case "ctrl+u", "pgup":
		l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
	}
	l.ensureVisible()
	return nil
}

// VisibleRows returns the absolute rows currently on screen
func (l *PhotoList) VisibleRows() []int {
	end := min(l.offset+l.maxVisible, l.visibleCount())
	rows := make([]int, 0, max(end-l.offset, 0))
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.mapIndex(i))
	}
	return rows
}

// SelectedRow returns the absolute row under the cursor
func (l *PhotoList) SelectedRow() (int, bool) {
	if l.visibleCount() == 0 {
		return 0, false
	}
	return l.mapIndex(l.cursor), true
}

// SelectedPhoto returns the photo under the cursor if its page is loaded
func (l *PhotoList) SelectedPhoto() (*domain.Photo, bool) {
	row, ok := l.SelectedRow()
	if !ok {
		return nil, false
	}
	return l.source.RowAt(row)
}

// Presenter returns the row presenter for an absolute row, creating it
// once the row's page is loaded.
func (l *PhotoList) Presenter(row int) (*presenter.Row, bool) {
	if r, ok := l.rows[row]; ok {
		return r, true
	}
	photo, ok := l.source.RowAt(row)
	if !ok {
		return nil, false
	}
	r := l.newRow(*photo)
	l.rows[row] = r
	return r, true
}

// ToggleFilter activates the filter input
func (l *PhotoList) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *PhotoList) IsFiltering() bool { return l.filterActive }

// IsFilterTyping returns true if filter is active AND input is focused
func (l *PhotoList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all rows
func (l *PhotoList) ClearFilter() { l.clearFilter() }

// RefreshFilter re-runs the active filter after more rows loaded
func (l *PhotoList) RefreshFilter() {
	if l.filterActive && l.filterQuery != "" {
		cursor := l.cursor
		l.applyFilter()
		l.cursor = min(cursor, max(len(l.matches)-1, 0))
		l.ensureVisible()
	}
}

func (l *PhotoList) View() string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

// Internal methods

func (l *PhotoList) recalcMaxVisible() {
	interiorHeight := l.height - BorderHeight
	l.maxVisible = interiorHeight - ScrollIndicatorLines - 1 // -1 for title
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *PhotoList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *PhotoList) clearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.matches = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
}

func (l *PhotoList) applyFilter() {
	l.filterQuery = l.filterInput.Value()
	if l.filterQuery == "" {
		l.matches = nil
		return
	}

	var rows []int
	var titles []string
	for row := 0; row < l.count; row++ {
		r, ok := l.Presenter(row)
		if !ok {
			continue
		}
		rows = append(rows, row)
		titles = append(titles, r.FilterValue())
	}

	l.matches = search.FilterRows(l.filterQuery, rows, titles)
	if l.matches == nil {
		l.matches = []search.RowMatch{}
	}
	l.cursor = 0
	l.offset = 0
}

func (l *PhotoList) filtered() bool {
	return l.filterActive && l.matches != nil
}

func (l *PhotoList) visibleCount() int {
	if l.filtered() {
		return len(l.matches)
	}
	return l.count
}

func (l *PhotoList) mapIndex(i int) int {
	if l.filtered() && i < len(l.matches) {
		return l.matches[i].Row
	}
	return i
}

// Rendering

func (l *PhotoList) renderContent() string {
	itemWidth := max(l.width-BorderWidth, 10)

	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, itemWidth))

	count := l.visibleCount()
	if count == 0 {
		msg := "No photos"
		switch {
		case l.loading:
			msg = l.spinner + " Searching..."
		case l.filtered():
			msg = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		var matched []int
		if l.filtered() {
			matched = l.matches[i].MatchedIndexes
		}
		lines = append(lines, l.renderRow(l.mapIndex(i), i == l.cursor, matched, itemWidth))
	}

	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

func (l *PhotoList) renderRow(row int, selected bool, matched []int, width int) string {
	num := fmt.Sprintf("%4d ", row+1)

	r, ok := l.Presenter(row)
	if !ok {
		line := styles.Pad(num+"  loading…", width)
		if selected {
			return styles.SelectedItemStyle.Render(line)
		}
		return styles.PlaceholderItemStyle.Render(line)
	}

	marker := styles.ThumbPending
	if r.Thumbnail() != nil {
		marker = styles.ThumbReady
	}

	caption := r.FilterValue()
	if caption == "" {
		caption = r.Photo().ID
		matched = nil
	}
	caption = styles.Truncate(caption, max(width-len(num)-2, 1))

	style := styles.NormalItemStyle
	if selected {
		style = styles.SelectedItemStyle
	}
	text := style.Render(caption)
	if len(matched) > 0 {
		text = styles.Highlight(caption, matched, selected)
	}

	line := style.Render(num) + marker + style.Render(" ") + text
	return line + style.Render(strings.Repeat(" ", max(width-len(num)-2-len([]rune(caption)), 0)))
}

func (l *PhotoList) renderFilterBar() string {
	input := l.filterInput.View()
	if l.filterQuery == "" {
		return input
	}
	return input + styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", len(l.matches), l.count))
}
