package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shutter/internal/domain"
	"github.com/mmcdole/shutter/internal/pagination"
	"github.com/mmcdole/shutter/internal/presenter"
	"github.com/mmcdole/shutter/internal/store"
	"github.com/mmcdole/shutter/internal/tui/components"
	"github.com/mmcdole/shutter/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateSearching ApplicationState = iota
	StateBrowsing
	StateDetail
	StateHelp
)

// Vertical layout: header line + footer line
const ChromeHeight = 2

// EventBufferSize is the capacity of the controller event channel
const EventBufferSize = 256

// Options wires the model to the rest of the application
type Options struct {
	Controller *pagination.Controller
	Images     domain.ImageFetcher
	History    *store.History // may be nil
	Events     <-chan tea.Msg // fed by a ChannelObserver on Controller
	Logger     *slog.Logger

	ThumbnailVariant string
	HistorySize      int
	ImageTimeout     time.Duration
	InitialTerm      string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State     ApplicationState
	prevState ApplicationState
	Ready     bool

	// Services
	controller   *pagination.Controller
	images       domain.ImageFetcher
	history      *store.History
	events       <-chan tea.Msg
	logger       *slog.Logger
	variant      string
	historySize  int
	imageTimeout time.Duration

	// UI Components
	SearchBar components.SearchBar
	List      *components.PhotoList
	Detail    components.DetailPane
	Spinner   spinner.Model
	Help      help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	Term        string
	Loading     bool
	StatusMsg   string
	StatusIsErr bool

	initCmd tea.Cmd
}

// NewModel creates a new application model. With an initial term the
// search starts immediately; otherwise the search bar is focused.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 8
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 30 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		State:        StateSearching,
		controller:   opts.Controller,
		images:       opts.Images,
		history:      opts.History,
		events:       opts.Events,
		logger:       logger,
		variant:      opts.ThumbnailVariant,
		historySize:  opts.HistorySize,
		imageTimeout: opts.ImageTimeout,
		SearchBar:    components.NewSearchBar(),
		Detail:       components.NewDetailPane(),
		Spinner:      sp,
		Help:         help.New(),
	}
	m.List = components.NewPhotoList(opts.Controller, func(p domain.Photo) *presenter.Row {
		return presenter.NewRow(p, opts.Images, opts.ThumbnailVariant)
	})

	if m.history != nil {
		m.SearchBar.SetHistory(m.history.Recent(m.historySize))
	}

	if opts.InitialTerm != "" {
		m.initCmd = m.startSearch(opts.InitialTerm)
	} else {
		m.initCmd = m.SearchBar.Focus("")
	}
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenCmd(m.events),
		m.Spinner.Tick,
		m.initCmd,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, m.afterScroll()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.List.SetSpinner(m.Spinner.View())
		m.Detail.SetSpinner(m.Spinner.View())
		return m, cmd

	case LoadingChangedMsg:
		m.Loading = msg.Loading
		m.List.SetLoading(msg.Loading)
		m.syncRowCount()
		return m, tea.Batch(listenCmd(m.events), m.afterScroll())

	case RowCountChangedMsg:
		m.List.SetRowCount(msg.Count)
		return m, tea.Batch(listenCmd(m.events), m.afterScroll())

	case PageReadyMsg:
		m.syncRowCount()
		m.List.RefreshFilter()
		if m.StatusIsErr {
			m.clearStatus()
		}
		return m, tea.Batch(listenCmd(m.events), m.afterScroll())

	case PageFailedMsg:
		m.logger.Warn("page failed", "page", msg.Page, "error", msg.Err)
		m.setError(fmt.Sprintf("page %d failed (r to retry)", msg.Page+1))
		return m, listenCmd(m.events)

	case ThumbnailLoadedMsg:
		if msg.Err != nil {
			m.logger.Debug("thumbnail failed", "row", msg.Row, "error", msg.Err)
		}
		return m, nil

	case DetailLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("detail images failed", "photo", msg.PhotoID, "error", msg.Err)
			if d := m.Detail.Detail(); d != nil && d.Photo().ID == msg.PhotoID {
				m.setError("could not load full image")
			}
		}
		return m, nil

	case HistoryUpdatedMsg:
		m.SearchBar.SetHistory(msg.Terms)
		return m, nil

	case ErrMsg:
		m.logger.Error(msg.Error())
		m.setError(msg.Error())
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateHelp:
		m.State = m.prevState
		return m, nil

	case StateSearching:
		switch msg.String() {
		case "enter":
			term := m.SearchBar.Value()
			if term == "" {
				return m, nil
			}
			return m, m.startSearch(term)
		case "esc":
			if m.Term != "" {
				m.SearchBar.Blur()
				m.State = StateBrowsing
			}
			return m, nil
		}
		return m, m.SearchBar.Update(msg)

	case StateDetail:
		switch {
		case key.Matches(msg, Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, Keys.Back):
			m.State = StateBrowsing
			m.Detail.SetDetail(nil)
			return m, m.afterScroll()
		}
		return m, nil
	}

	// StateBrowsing
	if m.List.IsFilterTyping() {
		cmd := m.List.Update(msg)
		return m, tea.Batch(cmd, m.afterScroll())
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.prevState = m.State
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		m.List.ClearFilter()
		return m, m.SearchBar.Focus(m.Term)
	case key.Matches(msg, Keys.Filter) && !m.List.IsFiltering():
		m.List.ToggleFilter()
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, Keys.Enter):
		return m, m.openDetail()
	}

	cmd := m.List.Update(msg)
	return m, tea.Batch(cmd, m.afterScroll())
}

// startSearch makes term the active search
func (m *Model) startSearch(term string) tea.Cmd {
	m.Term = term
	m.State = StateBrowsing
	m.SearchBar.Blur()
	m.clearStatus()
	m.List.Reset(fmt.Sprintf("%q", term))
	m.Loading = true
	m.List.SetLoading(true)

	m.controller.SetSearchTerm(term)
	m.logger.Info("search started", "term", term)

	if m.history == nil {
		return nil
	}
	return RecordSearchCmd(m.history, term, m.historySize)
}

func (m *Model) refresh() tea.Cmd {
	if m.Term == "" {
		return nil
	}
	m.clearStatus()
	m.List.Reset(fmt.Sprintf("%q", m.Term))
	m.Loading = true
	m.List.SetLoading(true)
	m.controller.RequestRefresh()
	return nil
}

func (m *Model) openDetail() tea.Cmd {
	photo, ok := m.List.SelectedPhoto()
	if !ok {
		return nil
	}
	d := presenter.NewDetail(*photo, m.images)
	m.Detail.SetDetail(d)
	m.State = StateDetail
	return LoadDetailCmd(d, m.imageTimeout)
}

// syncRowCount catches the list up with the controller when a row count
// event was dropped or never sent because the count did not change.
func (m *Model) syncRowCount() {
	if n := m.controller.RowCount(); n != m.List.RowCount() {
		m.List.SetRowCount(n)
	}
}

// afterScroll prefetches the pages behind the visible rows and starts
// thumbnail fetches for visible rows that are loaded. Nothing is prefetched
// until page 0 of the active term has reported the real page layout.
func (m *Model) afterScroll() tea.Cmd {
	if m.State != StateBrowsing && m.State != StateSearching {
		return nil
	}
	if !m.controller.HasPage(0) {
		return nil
	}

	rows := m.List.VisibleRows()
	seen := make(map[int]bool)
	var cmds []tea.Cmd
	for _, row := range rows {
		if page, _ := m.controller.Locate(row); !seen[page] {
			seen[page] = true
			m.controller.Prefetch(row)
		}
		r, ok := m.List.Presenter(row)
		if !ok || r.Thumbnail() != nil || r.Loading() {
			continue
		}
		cmds = append(cmds, LoadThumbnailCmd(r, row, m.imageTimeout))
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateLayout() {
	bodyHeight := max(m.Height-ChromeHeight, 3)
	m.SearchBar.SetWidth(m.Width)
	m.List.SetSize(m.Width, bodyHeight)
	m.Detail.SetSize(m.Width, bodyHeight)
	m.Help.Width = m.Width
}

func (m *Model) setError(msg string) {
	m.StatusMsg = msg
	m.StatusIsErr = true
}

func (m *Model) clearStatus() {
	m.StatusMsg = ""
	m.StatusIsErr = false
}
