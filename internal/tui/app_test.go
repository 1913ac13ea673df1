package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shutter/internal/domain"
	"github.com/mmcdole/shutter/internal/pagination"
	"github.com/mmcdole/shutter/internal/store"
)

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, term string, index int) (*domain.Page, error) {
	return &domain.Page{
		Index:      index,
		Total:      3,
		TotalPages: 1,
		Results: []domain.Photo{
			{ID: "a", Description: "grey cat asleep", User: domain.User{Name: "Ada", Username: "ada"}},
			{ID: "b", Description: "dog on a beach"},
			{ID: "c", AltDescription: "cat and dog"},
		},
	}, nil
}

type fakeImages struct{}

func (fakeImages) Load(string) *domain.Image { return nil }
func (fakeImages) Fetch(context.Context, string) (*domain.Image, error) {
	return nil, errors.New("offline")
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// pagedSearch serves per-term totals in pages of size and counts requests.
// Requests for a gated term block until its gate is closed.
type pagedSearch struct {
	size int

	mu     sync.Mutex
	totals map[string]int
	gates  map[string]chan struct{}
	counts map[string]int
}

func newPagedSearch(size int, totals map[string]int) *pagedSearch {
	return &pagedSearch{
		size:   size,
		totals: totals,
		gates:  make(map[string]chan struct{}),
		counts: make(map[string]int),
	}
}

func (s *pagedSearch) gate(term string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[term] = ch
	return ch
}

func (s *pagedSearch) count(term string, index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[fmt.Sprintf("%s/%d", term, index)]
}

func (s *pagedSearch) Search(ctx context.Context, term string, index int) (*domain.Page, error) {
	s.mu.Lock()
	s.counts[fmt.Sprintf("%s/%d", term, index)]++
	gate := s.gates[term]
	total := s.totals[term]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	pages := (total + s.size - 1) / s.size
	n := max(min(s.size, total-index*s.size), 0)
	results := make([]domain.Photo, n)
	for i := range results {
		results[i] = domain.Photo{ID: fmt.Sprintf("%s-%d", term, index*s.size+i)}
	}
	return &domain.Page{Index: index, Total: total, TotalPages: pages, Results: results}, nil
}

// newTestModel returns a sized model with the initial search fully applied
func newTestModel(t *testing.T, opts Options) (tea.Model, chan tea.Msg) {
	t.Helper()
	return newTestModelWith(t, fakeSearch{}, opts)
}

func newTestModelWith(t *testing.T, client domain.SearchClient, opts Options) (tea.Model, chan tea.Msg) {
	t.Helper()

	events := make(chan tea.Msg, EventBufferSize)
	ctrl := pagination.New(client,
		pagination.WithObserver(NewChannelObserver(events)),
		pagination.WithDebounce(0),
	)
	t.Cleanup(ctrl.Close)

	opts.Controller = ctrl
	opts.Images = fakeImages{}
	opts.Events = events

	var model tea.Model = NewModel(opts)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	ctrl.Wait()
	return drain(model, events), events
}

func drain(model tea.Model, events chan tea.Msg) tea.Model {
	for {
		select {
		case msg := <-events:
			model, _ = model.Update(msg)
		default:
			return model
		}
	}
}

func TestModel_InitialSearchShowsRows(t *testing.T) {
	t.Parallel()

	model, _ := newTestModel(t, Options{InitialTerm: "cats"})
	m := model.(Model)

	assert.Equal(t, StateBrowsing, m.State)
	assert.False(t, m.Loading)
	assert.Equal(t, 3, m.List.RowCount())

	view := m.View()
	assert.Contains(t, view, "grey cat asleep")
	assert.Contains(t, view, "dog on a beach")
	assert.Contains(t, view, "3 photos")
}

func TestModel_WithoutTermStartsInSearchBar(t *testing.T) {
	t.Parallel()

	model, events := newTestModel(t, Options{})
	assert.Equal(t, StateSearching, model.(Model).State)

	for _, r := range "cats" {
		model, _ = model.Update(keyPress(string(r)))
	}
	model, _ = model.Update(keyPress("enter"))
	model.(Model).controller.Wait()
	model = drain(model, events)

	m := model.(Model)
	assert.Equal(t, StateBrowsing, m.State)
	assert.Equal(t, "cats", m.Term)
	assert.Equal(t, 3, m.List.RowCount())
}

func TestModel_NewSearchWaitsForFirstPageBeforePrefetching(t *testing.T) {
	t.Parallel()

	search := newPagedSearch(10, map[string]int{"cats": 25, "dogs": 4})
	model, events := newTestModelWith(t, search, Options{InitialTerm: "cats"})
	ctrl := model.(Model).controller
	ctrl.Wait()
	model = drain(model, events)
	ctrl.Wait()
	model = drain(model, events)
	require.Equal(t, 25, model.(Model).List.RowCount())

	gate := search.gate("dogs")
	m := model.(Model)
	m.startSearch("dogs")
	model = drain(m, events)
	assert.Zero(t, model.(Model).List.RowCount())

	close(gate)
	ctrl.Wait()
	model = drain(model, events)
	ctrl.Wait()
	model = drain(model, events)

	assert.Equal(t, 1, search.count("dogs", 0))
	for page := 1; page <= 3; page++ {
		assert.Zero(t, search.count("dogs", page), "page %d of a one-page term", page)
	}
	m = model.(Model)
	assert.Equal(t, 4, m.List.RowCount())
	assert.Contains(t, m.View(), "dogs-3")
}

func TestModel_PageReadyRecoversMissedRowCount(t *testing.T) {
	t.Parallel()

	model, _ := newTestModel(t, Options{InitialTerm: "cats"})
	m := model.(Model)
	m.List.SetRowCount(0)

	model, _ = m.Update(PageReadyMsg{Page: 0, Range: domain.RowRange{Start: 0, End: 3}})
	assert.Equal(t, 3, model.(Model).List.RowCount())
}

func TestModel_DetailView(t *testing.T) {
	t.Parallel()

	model, _ := newTestModel(t, Options{InitialTerm: "cats"})

	model, cmd := model.Update(keyPress("enter"))
	require.NotNil(t, cmd)
	m := model.(Model)
	require.Equal(t, StateDetail, m.State)
	assert.Contains(t, m.View(), "@ada")

	model, _ = model.Update(keyPress("esc"))
	assert.Equal(t, StateBrowsing, model.(Model).State)
}

func TestModel_Filter(t *testing.T) {
	t.Parallel()

	model, _ := newTestModel(t, Options{InitialTerm: "cats"})

	model, _ = model.Update(keyPress("/"))
	for _, r := range "dog" {
		model, _ = model.Update(keyPress(string(r)))
	}
	m := model.(Model)
	require.True(t, m.List.IsFilterTyping())
	assert.ElementsMatch(t, []int{1, 2}, m.List.VisibleRows())

	model, _ = model.Update(keyPress("esc"))
	m = model.(Model)
	assert.False(t, m.List.IsFiltering())
	assert.Equal(t, []int{0, 1, 2}, m.List.VisibleRows())
}

func TestModel_RecordsHistory(t *testing.T) {
	t.Parallel()

	history, err := store.NewHistory("")
	require.NoError(t, err)

	events := make(chan tea.Msg, EventBufferSize)
	ctrl := pagination.New(fakeSearch{}, pagination.WithObserver(NewChannelObserver(events)))
	t.Cleanup(ctrl.Close)

	m := NewModel(Options{Controller: ctrl, Images: fakeImages{}, Events: events, History: history, InitialTerm: "cats"})
	require.NotNil(t, m.initCmd)

	msg := m.initCmd()
	updated, ok := msg.(HistoryUpdatedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"cats"}, updated.Terms)
}

func TestChannelObserver_DoesNotBlock(t *testing.T) {
	t.Parallel()

	ch := make(chan tea.Msg, 1)
	o := NewChannelObserver(ch)

	o.OnRowCountChanged(5)
	o.OnRowCountChanged(6) // dropped: buffer full
	o.OnPageFailed(1, errors.New("boom"))

	require.Len(t, ch, 1)
	assert.Equal(t, RowCountChangedMsg{Count: 5}, <-ch)
}
