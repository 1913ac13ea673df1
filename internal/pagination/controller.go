// Package pagination owns the result pages of the active search term.
//
// The Controller decides which pages to fetch, deduplicates concurrent
// fetches of the same page, maps flat row indices onto (page, offset) pairs
// and notifies an observer as pages arrive. Results that arrive after the
// search term changed are dropped on arrival; in-flight requests are never
// cancelled at the transport level.
package pagination

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/shutter/internal/domain"
)

const (
	// DefaultDebounce coalesces rapid row count changes into one notification
	DefaultDebounce = 100 * time.Millisecond

	// DefaultRowSize is assumed until the first page reports its totals
	DefaultRowSize = 10
)

// ErrPastLastPage indicates a page index at or beyond the reported page count
var ErrPastLastPage = errors.New("page index beyond last page")

// Dispatcher runs fn on the context that owns the observer. Every
// notification goes through it; the default runs fn inline.
type Dispatcher func(fn func())

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the notification receiver
func WithObserver(o domain.PaginationObserver) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithDispatcher sets the delivery policy for notifications
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithDebounce sets the row count debounce window. Zero delivers immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithDefaultRowSize sets the row size used before any page has loaded
func WithDefaultRowSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.defaultRowSize = n
		}
	}
}

// WithFetchTimeout bounds each page request. Zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.fetchTimeout = d
		}
	}
}

// pageRequest captures everything a fetch needs to be applied later
type pageRequest struct {
	term       string
	generation uint64
	index      int
	initial    bool // first page of a search; its completion ends loading
}

// Controller manages the pages of one search term at a time
type Controller struct {
	client         domain.SearchClient
	logger         *slog.Logger
	observer       domain.PaginationObserver
	dispatch       Dispatcher
	debounce       time.Duration
	defaultRowSize int
	fetchTimeout   time.Duration

	mu         sync.Mutex
	term       string
	hasTerm    bool
	generation uint64
	pages      map[int]*domain.Page
	inFlight   map[int]struct{}
	nextUnseen int // one past the highest index requested for this term
	rowSize    int
	rowCount   int
	totalPages int
	haveTotals bool

	countTimer   *time.Timer
	lastCount    int
	countEmitted bool
	closed       bool

	wg sync.WaitGroup
}

// New creates a controller that fetches pages through client
func New(client domain.SearchClient, opts ...Option) *Controller {
	c := &Controller{
		client:         client,
		logger:         slog.Default(),
		observer:       domain.NoOpObserver{},
		dispatch:       func(fn func()) { fn() },
		debounce:       DefaultDebounce,
		defaultRowSize: DefaultRowSize,
		pages:          make(map[int]*domain.Page),
		inFlight:       make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rowSize = c.defaultRowSize
	return c
}

// SetSearchTerm discards all pages of the previous term and starts loading
// page 0 of term.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	hadRows := c.rowCount != 0
	c.generation++
	c.term = term
	c.hasTerm = true
	c.pages = make(map[int]*domain.Page)
	c.inFlight = make(map[int]struct{})
	c.nextUnseen = 0
	c.rowSize = c.defaultRowSize
	c.rowCount = 0
	c.totalPages = 0
	c.haveTotals = false

	req, _ := c.requestLocked(0)
	if req != nil {
		req.initial = true
	}
	generation := c.generation
	c.mu.Unlock()

	c.logger.Info("search term set", "term", term, "generation", generation)

	c.notify(func(o domain.PaginationObserver) { o.OnLoadingChanged(true) })
	if hadRows {
		c.scheduleRowCount()
	}
	c.start(req)
}

// RequestRefresh reloads the active term from scratch. No-op without a term.
func (c *Controller) RequestRefresh() {
	c.mu.Lock()
	term, ok := c.term, c.hasTerm
	c.mu.Unlock()

	if !ok {
		return
	}
	c.SetSearchTerm(term)
}

// Term returns the active search term and whether one is set
func (c *Controller) Term() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term, c.hasTerm
}

// RowCount returns the total reported by the most recently loaded page
func (c *Controller) RowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowCount
}

// RowSize returns the rows-per-page currently used for row mapping
func (c *Controller) RowSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowSize
}

// Locate maps a row onto its page index and offset with the current row size
func (c *Controller) Locate(row int) (pageIndex, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return row / c.rowSize, row % c.rowSize
}

// HasPage reports whether pageIndex of the active term is loaded
func (c *Controller) HasPage(pageIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pages[pageIndex]
	return ok
}

// RowAt returns the photo for row if its page is loaded
func (c *Controller) RowAt(row int) (*domain.Photo, bool) {
	if row < 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.pages[row/c.rowSize]
	if !ok {
		return nil, false
	}
	offset := row % c.rowSize
	if offset >= len(page.Results) {
		return nil, false
	}
	photo := page.Results[offset]
	return &photo, true
}

// Prefetch makes sure the page holding row and the page after it are loaded
// or loading. Missing pages between the furthest requested page and the
// target are requested too, so jumping far ahead leaves no gaps.
func (c *Controller) Prefetch(row int) {
	if row < 0 {
		return
	}

	c.mu.Lock()
	if !c.hasTerm {
		c.mu.Unlock()
		return
	}
	pageIndex := row / c.rowSize
	reqs := c.ensureLocked(pageIndex)
	reqs = append(reqs, c.ensureLocked(pageIndex+1)...)
	c.mu.Unlock()

	c.start(reqs...)
}

// RequestPage requests a single page. It returns domain.ErrRedundantRequest
// when the page is already in flight; that is not a failure.
func (c *Controller) RequestPage(pageIndex int) error {
	c.mu.Lock()
	req, err := c.requestLocked(pageIndex)
	c.mu.Unlock()

	if err != nil {
		if errors.Is(err, domain.ErrRedundantRequest) {
			c.logger.Debug("page already in flight", "page", pageIndex)
		}
		return err
	}
	c.start(req)
	return nil
}

// Wait blocks until every fetch started so far has completed
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops any pending row count notification. Fetches that complete
// afterwards are dropped without touching state or notifying.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.countTimer != nil {
		c.countTimer.Stop()
		c.countTimer = nil
	}
}

// Snapshot is a point-in-time view of the controller state
type Snapshot struct {
	Term       string
	Loaded     []int
	InFlight   []int
	RowSize    int
	RowCount   int
	TotalPages int
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Term:       c.term,
		RowSize:    c.rowSize,
		RowCount:   c.rowCount,
		TotalPages: c.totalPages,
		Loaded:     make([]int, 0, len(c.pages)),
		InFlight:   make([]int, 0, len(c.inFlight)),
	}
	for idx := range c.pages {
		s.Loaded = append(s.Loaded, idx)
	}
	for idx := range c.inFlight {
		s.InFlight = append(s.InFlight, idx)
	}
	sort.Ints(s.Loaded)
	sort.Ints(s.InFlight)
	return s
}

// ensureLocked returns the requests needed for pageIndex to be loaded or
// loading. Caller holds mu.
func (c *Controller) ensureLocked(pageIndex int) []*pageRequest {
	if pageIndex < c.nextUnseen {
		req, _ := c.requestLocked(pageIndex)
		if req == nil {
			return nil
		}
		return []*pageRequest{req}
	}

	var reqs []*pageRequest
	for idx := c.nextUnseen; idx <= pageIndex; idx++ {
		req, err := c.requestLocked(idx)
		if errors.Is(err, ErrPastLastPage) {
			break
		}
		if req != nil {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// requestLocked marks pageIndex in flight and returns the request to start.
// A nil request with a nil error means the page is already loaded.
// Caller holds mu.
func (c *Controller) requestLocked(pageIndex int) (*pageRequest, error) {
	if !c.hasTerm {
		return nil, domain.ErrNoSearchTerm
	}
	if pageIndex < 0 || (c.haveTotals && pageIndex >= c.totalPages) {
		return nil, ErrPastLastPage
	}
	if _, ok := c.inFlight[pageIndex]; ok {
		return nil, domain.ErrRedundantRequest
	}
	if _, ok := c.pages[pageIndex]; ok {
		return nil, nil
	}

	c.inFlight[pageIndex] = struct{}{}
	if pageIndex >= c.nextUnseen {
		c.nextUnseen = pageIndex + 1
	}
	return &pageRequest{
		term:       c.term,
		generation: c.generation,
		index:      pageIndex,
	}, nil
}

// start launches fetches for reqs; nil entries are skipped
func (c *Controller) start(reqs ...*pageRequest) {
	for _, req := range reqs {
		if req == nil {
			continue
		}
		c.logger.Debug("requesting page", "term", req.term, "page", req.index)
		c.wg.Add(1)
		go c.fetch(req)
	}
}

func (c *Controller) fetch(req *pageRequest) {
	defer c.wg.Done()

	ctx := context.Background()
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	page, err := c.client.Search(ctx, req.term, req.index)
	c.complete(req, page, err)
}

// complete applies a finished fetch to the page set
func (c *Controller) complete(req *pageRequest, page *domain.Page, err error) {
	var events []func(domain.PaginationObserver)
	countChanged := false

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding page after close", "term", req.term, "page", req.index)
		return
	}
	if req.generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale page", "term", req.term, "page", req.index)
		return
	}
	delete(c.inFlight, req.index)

	if err == nil && page == nil {
		err = domain.ErrDecode
	}

	if err != nil {
		c.logger.Warn("page fetch failed", "term", req.term, "page", req.index, "error", err)
		events = append(events, func(o domain.PaginationObserver) { o.OnPageFailed(req.index, err) })
	} else {
		page.Index = req.index
		c.pages[req.index] = page
		if rs := page.RowSize(); rs > 0 {
			c.rowSize = rs
		}
		c.totalPages = page.TotalPages
		c.haveTotals = true

		start := req.index * c.rowSize
		r := domain.RowRange{Start: start, End: start + len(page.Results)}
		events = append(events, func(o domain.PaginationObserver) { o.OnPageReady(req.index, r) })

		if c.rowCount != page.Total {
			c.rowCount = page.Total
			countChanged = true
		}
		c.logger.Debug("page loaded", "term", req.term, "page", req.index,
			"results", len(page.Results), "total", page.Total, "rowSize", c.rowSize)
	}

	if req.initial {
		events = append(events, func(o domain.PaginationObserver) { o.OnLoadingChanged(false) })
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.notify(ev)
	}
	if countChanged {
		c.scheduleRowCount()
	}
}

func (c *Controller) notify(fn func(domain.PaginationObserver)) {
	o := c.observer
	c.dispatch(func() { fn(o) })
}
