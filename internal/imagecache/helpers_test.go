package imagecache

// keys returns sources from most to least recent
func (l *lru) keys() []string {
	keys := make([]string, 0, l.order.Len())
	for el := l.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).source)
	}
	return keys
}

// contains reports membership without touching recency
func (l *lru) contains(source string) bool {
	_, ok := l.items[source]
	return ok
}

// inMemory reports whether source is in the memory tier without promoting it
func (c *Cache) inMemory(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem.contains(source)
}
