// Package search ranks history suggestions and filters loaded rows.
package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Suggest returns the history terms that fuzzily contain input, best match
// first. Ties keep the order of terms, which callers pass most recent first.
// An empty input returns terms unchanged.
func Suggest(input string, terms []string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return terms
	}

	ranks := lfuzzy.RankFindNormalizedFold(input, terms)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		if strings.EqualFold(r.Target, input) {
			continue // Already typed
		}
		out = append(out, r.Target)
	}
	return out
}

// RowMatch is a filtered row with match metadata for highlighting
type RowMatch struct {
	Row            int   // Absolute row index
	MatchedIndexes []int // Character positions that matched
	Score          int   // Higher is better
}

// RowIndex implements sahilm/fuzzy.Source over loaded rows
type RowIndex struct {
	rows        []int
	lowerTitles []string
}

// NewRowIndex builds an index from absolute row numbers and their text.
// rows and titles must have the same length.
func NewRowIndex(rows []int, titles []string) *RowIndex {
	lower := make([]string, len(titles))
	for i, t := range titles {
		lower[i] = strings.ToLower(t)
	}
	return &RowIndex{rows: rows, lowerTitles: lower}
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *RowIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of indexed rows (implements fuzzy.Source)
func (idx *RowIndex) Len() int { return len(idx.rows) }

// Filter returns the rows matching query, best first. An empty query
// returns nil.
func (idx *RowIndex) Filter(query string) []RowMatch {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]RowMatch, len(matches))
	for i, m := range matches {
		results[i] = RowMatch{
			Row:            idx.rows[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// FilterRows is a convenience wrapper around NewRowIndex(...).Filter
func FilterRows(query string, rows []int, titles []string) []RowMatch {
	return NewRowIndex(rows, titles).Filter(query)
}
