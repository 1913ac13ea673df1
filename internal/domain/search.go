package domain

import "context"

// SearchClient fetches one page of search results. It holds no state.
type SearchClient interface {
	// Search returns the page at the zero-based pageIndex for term
	Search(ctx context.Context, term string, pageIndex int) (*Page, error)
}
