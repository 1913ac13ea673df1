package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrTransport indicates the network request failed or returned a non-success status
	ErrTransport = errors.New("transport failure")

	// ErrDecode indicates a response body or image payload could not be decoded
	ErrDecode = errors.New("decode failure")

	// ErrInvalidSource indicates an absent or malformed image source identifier
	ErrInvalidSource = errors.New("invalid image source")

	// ErrRedundantRequest indicates the page is already being fetched.
	// It is an expected outcome and must not be shown to the user as a failure.
	ErrRedundantRequest = errors.New("page request already in flight")

	// ErrNoSearchTerm indicates a page was requested before any search term was set
	ErrNoSearchTerm = errors.New("no active search term")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.URL)
}

// Unwrap lets errors.Is(err, ErrTransport) match status failures.
func (e *StatusError) Unwrap() error { return ErrTransport }
