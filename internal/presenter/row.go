// Package presenter holds the per-row and detail state the UI renders.
// Presenters only talk to the image cache contract; they never touch the
// network directly.
package presenter

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/shutter/internal/domain"
)

// Row is the state of one result row: its caption and its thumbnail.
type Row struct {
	photo   domain.Photo
	fetcher domain.ImageFetcher
	variant string

	mu        sync.Mutex
	thumbnail *domain.Image
	loading   bool
	onChange  func()
}

// NewRow creates a row for photo. variant selects the rendition used as the
// thumbnail; an empty variant means domain.VariantThumb.
func NewRow(photo domain.Photo, fetcher domain.ImageFetcher, variant string) *Row {
	if variant == "" {
		variant = domain.VariantThumb
	}
	return &Row{photo: photo, fetcher: fetcher, variant: variant}
}

// Photo returns the underlying photo
func (r *Row) Photo() domain.Photo { return r.photo }

// Caption returns the text shown for the row
func (r *Row) Caption() string { return r.photo.Caption() }

// FilterValue is the text matched by the local row filter
func (r *Row) FilterValue() string {
	if c := r.photo.Caption(); c != "" {
		return c
	}
	return r.photo.User.Name
}

// Thumbnail returns the loaded thumbnail, or nil
func (r *Row) Thumbnail() *domain.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.thumbnail
}

// Loading reports whether a thumbnail fetch is running
func (r *Row) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// OnChange registers a callback invoked after the thumbnail is set
func (r *Row) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// LoadIfNeeded fetches the thumbnail unless it is already present or being
// fetched. On failure the thumbnail stays empty and a later call retries.
func (r *Row) LoadIfNeeded(ctx context.Context) error {
	r.mu.Lock()
	if r.thumbnail != nil || r.loading {
		r.mu.Unlock()
		return nil
	}
	source := r.photo.URLs.Variant(r.variant)
	if source == "" {
		r.mu.Unlock()
		return fmt.Errorf("%w: photo %s has no %s rendition", domain.ErrInvalidSource, r.photo.ID, r.variant)
	}
	r.loading = true
	r.mu.Unlock()

	img, err := r.fetcher.Fetch(ctx, source)

	r.mu.Lock()
	r.loading = false
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.thumbnail = img
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}
