package domain

// PaginationObserver receives the notifications the pagination controller
// emits to the presentation layer. Calls are delivered through the
// controller's dispatcher, never while it holds its lock.
type PaginationObserver interface {
	// OnLoadingChanged reports the start (true) and end (false) of the
	// first-page load after a search term is set.
	OnLoadingChanged(loading bool)

	// OnRowCountChanged reports a new total row count. Debounced.
	OnRowCountChanged(count int)

	// OnPageReady reports that the rows in r can now be resolved.
	OnPageReady(pageIndex int, r RowRange)

	// OnPageFailed reports a failed page fetch. The page stays absent and
	// may be requested again.
	OnPageFailed(pageIndex int, err error)
}

// NoOpObserver discards all notifications (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnLoadingChanged(bool)     {}
func (NoOpObserver) OnRowCountChanged(int)     {}
func (NoOpObserver) OnPageReady(int, RowRange) {}
func (NoOpObserver) OnPageFailed(int, error)   {}
