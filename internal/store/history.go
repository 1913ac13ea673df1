// Package store persists recent search terms in BoltDB.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketHistory = []byte("history")

// entry is the persisted record of one search term
type entry struct {
	Term     string `json:"term"`
	LastUsed int64  `json:"last_used"` // unix nanoseconds
	Uses     int    `json:"uses"`
}

// History is a most-recently-used list of search terms. Terms are keyed
// case-insensitively; the latest spelling wins.
type History struct {
	db *bolt.DB
	mu sync.RWMutex

	// All entries are held in memory; the db is write-through.
	entries map[string]entry
	now     func() time.Time
}

// NewHistory opens the history database under dir. An empty dir gives a
// memory-only history that is lost on exit.
func NewHistory(dir string) (*History, error) {
	h := &History{entries: make(map[string]entry), now: time.Now}
	if dir == "" {
		return h, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, "history.db"), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketHistory)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var e entry
			if json.Unmarshal(v, &e) != nil {
				return nil // Skip unreadable records
			}
			h.entries[string(k)] = e
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	h.db = db
	return h, nil
}

func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Add records a use of term. Blank terms are ignored.
func (h *History) Add(term string) error {
	term = strings.TrimSpace(term)
	key := normalize(term)
	if key == "" {
		return nil
	}

	h.mu.Lock()
	e := h.entries[key]
	e.Term = term
	e.Uses++
	e.LastUsed = h.now().UnixNano()
	h.entries[key] = e
	h.mu.Unlock()

	if h.db == nil {
		return nil // Memory-only mode
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHistory).Put([]byte(key), data)
	})
}

// Recent returns up to limit terms, most recent first. limit <= 0 means all.
func (h *History) Recent(limit int) []string {
	h.mu.RLock()
	all := make([]entry, 0, len(h.entries))
	for _, e := range h.entries {
		all = append(all, e)
	}
	h.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].LastUsed != all[j].LastUsed {
			return all[i].LastUsed > all[j].LastUsed
		}
		return all[i].Term < all[j].Term
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	terms := make([]string, len(all))
	for i, e := range all {
		terms[i] = e.Term
	}
	return terms
}

// Len returns the number of stored terms
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear deletes every stored term
func (h *History) Clear() error {
	h.mu.Lock()
	h.entries = make(map[string]entry)
	h.mu.Unlock()

	if h.db == nil {
		return nil
	}

	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		var keys [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}
