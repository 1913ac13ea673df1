package imagecache

import (
	"container/list"

	"github.com/mmcdole/shutter/internal/domain"
)

// entry is a memory-tier cache entry
type entry struct {
	source string
	image  *domain.Image
}

// lru is a strict least-recently-used map. Not safe for concurrent use;
// Cache serializes access with its mutex.
type lru struct {
	capacity int
	order    *list.List // front = most recent
	items    map[string]*list.Element
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get returns the image and marks it most recent
func (l *lru) get(source string) (*domain.Image, bool) {
	el, ok := l.items[source]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*entry).image, true
}

// add inserts or replaces source as the most recent entry. If the tier
// overflows, the least recent entry is dropped and its key returned.
func (l *lru) add(source string, img *domain.Image) (evicted string, ok bool) {
	if el, exists := l.items[source]; exists {
		el.Value.(*entry).image = img
		l.order.MoveToFront(el)
		return "", false
	}

	el := l.order.PushFront(&entry{source: source, image: img})
	l.items[source] = el

	if l.order.Len() <= l.capacity {
		return "", false
	}

	oldest := l.order.Back()
	l.order.Remove(oldest)
	e := oldest.Value.(*entry)
	delete(l.items, e.source)
	return e.source, true
}

func (l *lru) len() int {
	return l.order.Len()
}
