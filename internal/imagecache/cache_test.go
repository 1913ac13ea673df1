package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shutter/internal/domain"
)

// fakeTransport serves generated PNGs and counts requests per URL
type fakeTransport struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	counts  map[string]int
	total   atomic.Int64
	err     error
	release chan struct{} // when non-nil, Get blocks until closed
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{bodies: make(map[string][]byte), counts: make(map[string]int)}
}

func (f *fakeTransport) Get(ctx context.Context, rawURL string) ([]byte, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.counts[rawURL]++
	body, ok := f.bodies[rawURL]
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if !ok {
		return nil, &domain.StatusError{Code: 404, URL: rawURL}
	}
	return body, nil
}

func (f *fakeTransport) count(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[rawURL]
}

// serve registers a distinct PNG for rawURL and returns its bytes
func (f *fakeTransport) serve(t *testing.T, rawURL string, seed int) []byte {
	t.Helper()
	data := makePNG(t, seed)
	f.mu.Lock()
	f.bodies[rawURL] = data
	f.mu.Unlock()
	return data
}

func makePNG(t *testing.T, seed int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: uint8(seed), G: uint8(seed >> 8), B: 7, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sourceURL(i int) string {
	return fmt.Sprintf("https://images.example.com/photo-%d?w=200", i)
}

func TestFetch_DownloadsOnceThenServesFromMemory(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	want := tr.serve(t, sourceURL(1), 1)
	c := New(tr, t.TempDir())

	img, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	assert.Equal(t, want, img.Data)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 3, img.Height)

	again, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	assert.Same(t, img, again)
	assert.Same(t, img, c.Load(sourceURL(1)))
	assert.Equal(t, 1, tr.count(sourceURL(1)))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Downloads)
	assert.Equal(t, 1, stats.DiskEntries)
}

func TestLoad_FullMissDoesNotTouchNetwork(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	c := New(tr, t.TempDir())

	assert.Nil(t, c.Load(sourceURL(1)))
	assert.Zero(t, tr.total.Load())
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestFetch_EvictsLeastRecentlyUsedToDiskOnly(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	for i := 0; i <= DefaultCapacity; i++ {
		tr.serve(t, sourceURL(i), i)
	}
	c := New(tr, t.TempDir())

	for i := 0; i <= DefaultCapacity; i++ {
		_, err := c.Fetch(context.Background(), sourceURL(i))
		require.NoError(t, err)
	}

	assert.Equal(t, DefaultCapacity, c.Len())
	assert.False(t, c.inMemory(sourceURL(0)), "first inserted entry should be evicted")
	for i := 1; i <= DefaultCapacity; i++ {
		assert.True(t, c.inMemory(sourceURL(i)), "entry %d should remain in memory", i)
	}
	assert.Equal(t, int64(1), c.Stats().Evictions)

	img := c.Load(sourceURL(0))
	require.NotNil(t, img, "evicted entry must be loadable from disk")
	assert.Equal(t, int64(DefaultCapacity+1), tr.total.Load(), "disk hit must not download")
	assert.Equal(t, int64(1), c.Stats().DiskHits)

	// Promotion from disk is a memory write and evicts the next oldest.
	assert.True(t, c.inMemory(sourceURL(0)))
	assert.False(t, c.inMemory(sourceURL(1)))
}

func TestRoundTrip_MemoryAndDiskBytesMatch(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 42)
	tr.serve(t, sourceURL(2), 43)
	c := New(tr, t.TempDir(), WithCapacity(1))

	fetched, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	fromMemory := c.Load(sourceURL(1))
	require.NotNil(t, fromMemory)

	// Force eviction of source 1.
	_, err = c.Fetch(context.Background(), sourceURL(2))
	require.NoError(t, err)
	require.False(t, c.inMemory(sourceURL(1)))

	fromDisk := c.Load(sourceURL(1))
	require.NotNil(t, fromDisk)
	assert.Equal(t, fromMemory.Data, fromDisk.Data)
	assert.Equal(t, fetched.Data, fromDisk.Data)
	assert.Equal(t, fromMemory.Format, fromDisk.Format)
}

func TestLoad_PromotesOnHit(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	for i := 1; i <= 3; i++ {
		tr.serve(t, sourceURL(i), i)
	}
	c := New(tr, "", WithCapacity(2))
	ctx := context.Background()

	_, err := c.Fetch(ctx, sourceURL(1))
	require.NoError(t, err)
	_, err = c.Fetch(ctx, sourceURL(2))
	require.NoError(t, err)
	require.NotNil(t, c.Load(sourceURL(1)))

	_, err = c.Fetch(ctx, sourceURL(3))
	require.NoError(t, err)

	assert.True(t, c.inMemory(sourceURL(1)))
	assert.False(t, c.inMemory(sourceURL(2)))
	assert.True(t, c.inMemory(sourceURL(3)))
}

func TestNew_DiskUnavailableFallsBackToMemory(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	tr.serve(t, sourceURL(2), 2)
	c := New(tr, filepath.Join(blocker, "images"), WithCapacity(1))
	require.False(t, c.DiskEnabled())

	img, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	require.NotNil(t, img)
	_, err = c.Fetch(context.Background(), sourceURL(2))
	require.NoError(t, err)

	assert.Nil(t, c.Load(sourceURL(1)), "evicted entry has no disk copy in memory-only mode")
	assert.Zero(t, c.Stats().DiskEntries)

	img, err = c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.Equal(t, 2, tr.count(sourceURL(1)))
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    string
		setup     func(t *testing.T, tr *fakeTransport)
		wantErr   error
		wantCalls int64
	}{
		{
			name:    "empty source",
			source:  "",
			wantErr: domain.ErrInvalidSource,
		},
		{
			name:    "relative source",
			source:  "/photo.png",
			wantErr: domain.ErrInvalidSource,
		},
		{
			name:    "unparsable source",
			source:  "http://[::1",
			wantErr: domain.ErrInvalidSource,
		},
		{
			name:      "download fails",
			source:    sourceURL(9),
			wantErr:   domain.ErrTransport,
			wantCalls: 1,
		},
		{
			name:   "bytes are not an image",
			source: sourceURL(1),
			setup: func(t *testing.T, tr *fakeTransport) {
				tr.bodies[sourceURL(1)] = []byte("<html>not an image</html>")
			},
			wantErr:   domain.ErrDecode,
			wantCalls: 1,
		},
		{
			name:   "empty body",
			source: sourceURL(1),
			setup: func(t *testing.T, tr *fakeTransport) {
				tr.bodies[sourceURL(1)] = []byte{}
			},
			wantErr:   domain.ErrDecode,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := newFakeTransport()
			if tt.setup != nil {
				tt.setup(t, tr)
			}
			c := New(tr, t.TempDir())

			img, err := c.Fetch(context.Background(), tt.source)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, tr.total.Load())
			assert.Zero(t, c.Len())
		})
	}
}

func TestFetch_WrapsForeignTransportErrors(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.err = errors.New("connection reset")
	c := New(tr, "")

	_, err := c.Fetch(context.Background(), sourceURL(1))
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestFetch_ConcurrentSameSourceSharesDownload(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	tr.release = make(chan struct{})
	c := New(tr, t.TempDir())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Image, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), sourceURL(1))
		}(i)
	}

	require.Eventually(t, func() bool { return tr.count(sourceURL(1)) >= 1 }, testTimeout, testTick)
	close(tr.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Data, results[i].Data)
	}
	assert.Equal(t, 1, tr.count(sourceURL(1)))
	assert.Equal(t, 1, c.Stats().DiskEntries)
}

func TestFetch_CancelledCallerDoesNotFailSharedDownload(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	tr.release = make(chan struct{})
	c := New(tr, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, sourceURL(1))
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return tr.count(sourceURL(1)) == 1 }, testTimeout, testTick)

	second := make(chan *domain.Image, 1)
	go func() {
		img, err := c.Fetch(context.Background(), sourceURL(1))
		assert.NoError(t, err)
		second <- img
	}()

	cancel()
	err := <-firstErr
	require.ErrorIs(t, err, domain.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)

	close(tr.release)
	img := <-second
	require.NotNil(t, img)
	assert.Equal(t, 1, tr.count(sourceURL(1)))
	assert.True(t, c.inMemory(sourceURL(1)))
}

func TestFetch_DownloadTimeout(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	tr.release = make(chan struct{})
	t.Cleanup(func() { close(tr.release) })
	c := New(tr, "", WithDownloadTimeout(20*time.Millisecond))

	_, err := c.Fetch(context.Background(), sourceURL(1))
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_ConcurrentDistinctSources(t *testing.T) {
	t.Parallel()

	const sources = 64
	tr := newFakeTransport()
	for i := 0; i < sources; i++ {
		tr.serve(t, sourceURL(i), i)
	}
	c := New(tr, t.TempDir(), WithCapacity(10))

	var wg sync.WaitGroup
	for i := 0; i < sources; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), sourceURL(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, 10, stats.Entries)
	assert.Equal(t, sources, stats.DiskEntries)
	assert.Equal(t, int64(sources-10), stats.Evictions)

	for i := 0; i < sources; i++ {
		assert.NotNil(t, c.Load(sourceURL(i)), "source %d", i)
	}
	assert.Equal(t, int64(sources), tr.total.Load())
}

func TestDiskFilesUseUniqueNamesWithExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	tr.serve(t, sourceURL(2), 2)
	c := New(tr, dir)

	_, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), sourceURL(2))
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.NotEqual(t, matches[0], matches[1])
}

func TestClearDisk(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "images")
	tr := newFakeTransport()
	tr.serve(t, sourceURL(1), 1)
	c := New(tr, dir)
	_, err := c.Fetch(context.Background(), sourceURL(1))
	require.NoError(t, err)

	require.NoError(t, ClearDisk(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ClearDisk(""))
}
