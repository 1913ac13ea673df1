package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shutter/internal/presenter"
	"github.com/mmcdole/shutter/internal/store"
)

// Command factories for async operations

// LoadThumbnailCmd fetches a row's thumbnail if it does not have one yet
func LoadThumbnailCmd(row *presenter.Row, index int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := row.LoadIfNeeded(ctx)
		return ThumbnailLoadedMsg{Row: index, Err: err}
	}
}

// LoadDetailCmd fetches the full image and profile image for the detail view
func LoadDetailCmd(detail *presenter.Detail, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := detail.Load(ctx)
		return DetailLoadedMsg{PhotoID: detail.Photo().ID, Err: err}
	}
}

// RecordSearchCmd stores term in the history and returns the updated list
func RecordSearchCmd(history *store.History, term string, limit int) tea.Cmd {
	return func() tea.Msg {
		if err := history.Add(term); err != nil {
			return ErrMsg{Err: err, Context: "saving search history"}
		}
		return HistoryUpdatedMsg{Terms: history.Recent(limit)}
	}
}
