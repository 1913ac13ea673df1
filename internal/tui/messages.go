package tui

import "github.com/mmcdole/shutter/internal/domain"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// LoadingChangedMsg signals the start or end of a search's first page
type LoadingChangedMsg struct {
	Loading bool
}

// RowCountChangedMsg carries the debounced total row count
type RowCountChangedMsg struct {
	Count int
}

// PageReadyMsg signals that rows in Range can be resolved
type PageReadyMsg struct {
	Page  int
	Range domain.RowRange
}

// PageFailedMsg signals a failed page fetch
type PageFailedMsg struct {
	Page int
	Err  error
}

// ThumbnailLoadedMsg signals that a row's thumbnail fetch finished
type ThumbnailLoadedMsg struct {
	Row int
	Err error
}

// DetailLoadedMsg signals that the detail view finished fetching its images
type DetailLoadedMsg struct {
	PhotoID string
	Err     error
}

// HistoryUpdatedMsg carries the refreshed recent search terms
type HistoryUpdatedMsg struct {
	Terms []string
}
