// Package imagecache provides a two-tier image cache: a bounded in-memory
// LRU backed by an unbounded on-disk store.
//
// Memory is consulted first, then the disk index. Network access only
// happens in Fetch, and concurrent Fetch calls for the same source share a
// single download. The disk tier is append-only for the life of the process
// and its index is rebuilt from nothing on every start.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/shutter/internal/domain"
)

const (
	// DefaultCapacity is the default number of images held in memory
	DefaultCapacity = 100

	// DefaultDownloadTimeout bounds a shared download once no caller waits on it
	DefaultDownloadTimeout = 30 * time.Second
)

// Stats holds cache counters
type Stats struct {
	Hits        int64 // memory hits
	DiskHits    int64 // memory misses served from disk
	Misses      int64 // misses in both tiers
	Downloads   int64 // successful network fetches
	Evictions   int64 // memory evictions
	Entries     int   // images in memory
	DiskEntries int   // images indexed on disk
}

// Cache implements domain.ImageFetcher
type Cache struct {
	transport domain.Transport
	decoder   domain.Decoder
	logger    *slog.Logger
	capacity  int
	timeout   time.Duration

	// mu serializes every mutation of mem, disk.index and stats
	mu    sync.Mutex
	mem   *lru
	disk  *diskTier
	stats Stats

	fetchGroup singleflight.Group
}

// Interface compliance.
var _ domain.ImageFetcher = (*Cache)(nil)

// Option configures a Cache
type Option func(*Cache)

// WithCapacity sets the memory tier capacity. Values < 1 are ignored.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDecoder replaces the default image decoder
func WithDecoder(d domain.Decoder) Option {
	return func(c *Cache) {
		if d != nil {
			c.decoder = d
		}
	}
}

// WithDownloadTimeout bounds each network download independently of the
// callers' contexts. Zero means no bound.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a cache that downloads through transport and persists under
// dir. If dir is empty, cannot be created, or is not writable, the cache
// runs memory-only; this is not an error.
func New(transport domain.Transport, dir string, opts ...Option) *Cache {
	c := &Cache{
		transport: transport,
		decoder:   ImageDecoder{},
		logger:    slog.Default(),
		capacity:  DefaultCapacity,
		timeout:   DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mem = newLRU(c.capacity)
	c.disk = openDisk(dir, c.logger)
	return c
}

// Load returns the cached image for source, or nil. A disk hit is decoded
// and promoted into memory. Load never touches the network.
func (c *Cache) Load(source string) *domain.Image {
	return c.load(source, true)
}

func (c *Cache) load(source string, count bool) *domain.Image {
	c.mu.Lock()
	if img, ok := c.mem.get(source); ok {
		if count {
			c.stats.Hits++
		}
		c.mu.Unlock()
		return img
	}
	path, onDisk := c.disk.lookup(source)
	if !onDisk && count {
		c.stats.Misses++
	}
	c.mu.Unlock()

	if !onDisk {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("could not read cached image", "source", source, "path", path, "error", err)
		return nil
	}
	img, err := c.decoder.Decode(source, data)
	if err != nil {
		c.logger.Warn("could not decode cached image", "source", source, "path", path, "error", err)
		return nil
	}

	c.mu.Lock()
	if count {
		c.stats.DiskHits++
	}
	c.promote(source, img)
	c.mu.Unlock()

	return img
}

// Fetch returns the image for source, downloading it on a full miss.
// Errors wrap domain.ErrInvalidSource, domain.ErrTransport or domain.ErrDecode.
func (c *Cache) Fetch(ctx context.Context, source string) (*domain.Image, error) {
	if err := validateSource(source); err != nil {
		return nil, err
	}
	if img := c.Load(source); img != nil {
		return img, nil
	}

	// The download is detached from the callers' cancellation; a caller
	// whose ctx ends stops waiting but the download carries on.
	ch := c.fetchGroup.DoChan(source, func() (any, error) {
		// Another caller may have stored it between our miss and this call.
		if img := c.load(source, false); img != nil {
			return img, nil
		}
		dctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(dctx, c.timeout)
			defer cancel()
		}
		return c.download(dctx, source)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Image), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
	}
}

func (c *Cache) download(ctx context.Context, source string) (*domain.Image, error) {
	data, err := c.transport.Get(ctx, source)
	if err != nil {
		c.logger.Warn("image download failed", "source", source, "error", err)
		if !errors.Is(err, domain.ErrTransport) {
			err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		return nil, err
	}

	img, err := c.decoder.Decode(source, data)
	if err != nil {
		c.logger.Warn("image decode failed", "source", source, "bytes", len(data), "error", err)
		if !errors.Is(err, domain.ErrDecode) {
			err = fmt.Errorf("%w: %w", domain.ErrDecode, err)
		}
		return nil, err
	}

	c.store(source, img)
	return img, nil
}

// store inserts a freshly downloaded image into both tiers
func (c *Cache) store(source string, img *domain.Image) {
	c.mu.Lock()
	_, onDisk := c.disk.lookup(source)
	writeDisk := c.disk.enabled && !onDisk
	c.mu.Unlock()

	var path string
	if writeDisk {
		p, err := c.disk.write(img.Data, img.Format)
		if err != nil {
			c.logger.Warn("could not write image to disk cache", "source", source, "error", err)
		} else {
			path = p
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Downloads++
	c.promote(source, img)
	if path != "" && !c.disk.record(source, path) {
		// Lost a race with another writer for the same source.
		os.Remove(path)
	}
}

// promote makes source the most recent memory entry. Caller holds mu.
func (c *Cache) promote(source string, img *domain.Image) {
	if evicted, ok := c.mem.add(source, img); ok {
		c.stats.Evictions++
		c.logger.Debug("evicted image from memory", "source", evicted)
	}
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.mem.len()
	s.DiskEntries = len(c.disk.index)
	return s
}

// Len returns the number of images held in memory
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem.len()
}

// DiskEnabled reports whether the disk tier is active
func (c *Cache) DiskEnabled() bool {
	return c.disk.enabled
}

func validateSource(source string) error {
	if source == "" {
		return fmt.Errorf("%w: source is empty", domain.ErrInvalidSource)
	}
	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSource, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", domain.ErrInvalidSource, source)
	}
	return nil
}
