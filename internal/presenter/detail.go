package presenter

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/shutter/internal/domain"
)

// Detail is the state of the photo detail view.
//
// It starts with whatever thumbnail the cache already holds as a
// placeholder; Load then fetches the full rendition and the author's
// profile image concurrently.
type Detail struct {
	photo   domain.Photo
	fetcher domain.ImageFetcher

	mu       sync.Mutex
	image    *domain.Image
	full     bool
	profile  *domain.Image
	loading  bool
	onChange func()
}

// NewDetail creates a detail presenter. It performs a cache-only lookup of
// the thumbnail and never blocks on the network.
func NewDetail(photo domain.Photo, fetcher domain.ImageFetcher) *Detail {
	d := &Detail{photo: photo, fetcher: fetcher}
	if src := photo.URLs.Thumb; src != "" {
		d.image = fetcher.Load(src)
	}
	return d
}

// Photo returns the underlying photo
func (d *Detail) Photo() domain.Photo { return d.photo }

// Caption returns the photo caption
func (d *Detail) Caption() string { return d.photo.Caption() }

// ExpectedSize returns the original pixel dimensions reported by the API
func (d *Detail) ExpectedSize() (width, height int) {
	return d.photo.Width, d.photo.Height
}

func (d *Detail) Name() string     { return d.photo.User.Name }
func (d *Detail) Username() string { return d.photo.User.Username }
func (d *Detail) Bio() string      { return d.photo.User.Bio }

// Image returns the full image once loaded, otherwise the placeholder (may be nil)
func (d *Detail) Image() *domain.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.image
}

// HasFullImage reports whether Image returns the full rendition
func (d *Detail) HasFullImage() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.full
}

// Profile returns the author's profile image, or nil
func (d *Detail) Profile() *domain.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}

// Loading reports whether Load is running
func (d *Detail) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// OnChange registers a callback invoked whenever an image arrives
func (d *Detail) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Load fetches the full image and the medium profile image. Each result is
// applied as soon as it arrives; one failing does not discard the other.
// The first error is returned.
func (d *Detail) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.loading {
		d.mu.Unlock()
		return nil
	}
	d.loading = true
	d.mu.Unlock()

	var g errgroup.Group
	if src := d.photo.URLs.Full; src != "" {
		g.Go(func() error {
			img, err := d.fetcher.Fetch(ctx, src)
			if err != nil {
				return err
			}
			d.set(func() { d.image, d.full = img, true })
			return nil
		})
	}
	if src := d.photo.User.ProfileImage.Medium; src != "" {
		g.Go(func() error {
			img, err := d.fetcher.Fetch(ctx, src)
			if err != nil {
				return err
			}
			d.set(func() { d.profile = img })
			return nil
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.loading = false
	d.mu.Unlock()
	return err
}

func (d *Detail) set(apply func()) {
	d.mu.Lock()
	apply()
	onChange := d.onChange
	d.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}
