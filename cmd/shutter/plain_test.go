package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/shutter/internal/domain"
	"github.com/mmcdole/shutter/internal/pagination"
)

// pagedSearch serves total results split into pages of size
type pagedSearch struct {
	total, size int
	err         error
}

func (s pagedSearch) Search(_ context.Context, term string, index int) (*domain.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	pages := (s.total + s.size - 1) / s.size
	if s.total == 0 {
		pages = 0
	}
	n := min(s.size, s.total-index*s.size)
	results := make([]domain.Photo, max(n, 0))
	for i := range results {
		row := index*s.size + i
		results[i] = domain.Photo{
			ID:          fmt.Sprintf("%s-%d", term, row),
			Description: fmt.Sprintf("photo\n%d", row),
			User:        domain.User{Username: "ada"},
		}
	}
	return &domain.Page{Index: index, Total: s.total, TotalPages: pages, Results: results}, nil
}

func TestRunPlain_PrintsAcrossPages(t *testing.T) {
	t.Parallel()

	ctrl := pagination.New(pagedSearch{total: 30, size: 10}, pagination.WithDebounce(0))
	t.Cleanup(ctrl.Close)

	var out bytes.Buffer
	require.NoError(t, runPlain(&out, ctrl, "cats", 15))

	text := out.String()
	assert.Contains(t, text, "cats-0")
	assert.Contains(t, text, "cats-14")
	assert.NotContains(t, text, "cats-15")
	assert.Contains(t, text, "photo 14")
	assert.Contains(t, text, "15 of 30 photos")
	assert.Equal(t, []int{0, 1}, ctrl.Snapshot().Loaded[:2])
}

func TestRunPlain_NoResults(t *testing.T) {
	t.Parallel()

	ctrl := pagination.New(pagedSearch{total: 0, size: 10}, pagination.WithDebounce(0))
	t.Cleanup(ctrl.Close)

	var out bytes.Buffer
	require.NoError(t, runPlain(&out, ctrl, "nothing", 10))
	assert.True(t, strings.HasPrefix(out.String(), "No photos found"))
}

func TestRunPlain_SearchFails(t *testing.T) {
	t.Parallel()

	ctrl := pagination.New(pagedSearch{err: fmt.Errorf("%w: refused", domain.ErrTransport)}, pagination.WithDebounce(0))
	t.Cleanup(ctrl.Close)

	var out bytes.Buffer
	err := runPlain(&out, ctrl, "cats", 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrTransport))
	assert.Empty(t, out.String())
}

func TestOneLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", oneLine(" a\tb\n c "))
}
