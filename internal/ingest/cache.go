package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// Loader memoizes table and boundary parsing keyed by a SHA-256 digest of
// the uploaded bytes. Uploading the same file twice parses once; a changed
// file hashes differently and simply misses. There is no other invalidation
// policy: a new upload replaces the caller's reference and stale entries
// age out of the LRU.
type Loader struct {
	tables     *lruCache[*domain.Table]
	boundaries *lruCache[*domain.Boundary]
}

// NewLoader creates a Loader whose table and boundary caches each hold up to
// maxEntries parses.
func NewLoader(maxEntries int) *Loader {
	return &Loader{
		tables:     newLRUCache[*domain.Table](maxEntries),
		boundaries: newLRUCache[*domain.Boundary](maxEntries),
	}
}

// ContentHash returns the cache identity of an upload.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadTable parses a tabular upload, serving repeats from cache. The second
// return reports whether this was a cache hit.
func (l *Loader) LoadTable(filename string, data []byte) (*domain.Table, bool, error) {
	key := ContentHash(data)
	if t, ok := l.tables.get(key); ok {
		return t, true, nil
	}
	t, err := ParseTable(filename, data)
	if err != nil {
		return nil, false, err
	}
	l.tables.put(key, t)
	return t, false, nil
}

// LoadBoundary parses a GeoJSON upload, serving repeats from cache.
func (l *Loader) LoadBoundary(data []byte) (*domain.Boundary, bool, error) {
	key := ContentHash(data)
	if b, ok := l.boundaries.get(key); ok {
		return b, true, nil
	}
	b, err := ParseGeoJSON(data)
	if err != nil {
		return nil, false, err
	}
	l.boundaries.put(key, b)
	return b, false, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
