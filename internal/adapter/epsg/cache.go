package epsg

import (
	"sync"

	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
)

// CachedLookup wraps an axis-order lookup with an in-memory LRU cache.
type CachedLookup struct {
	inner   dsg.AxisOrderLookup
	cache   *lruCache[int, bool]
	metrics *observability.Metrics
}

// NewCachedLookup creates a cache decorator around a lookup.
func NewCachedLookup(inner dsg.AxisOrderLookup, maxEntries int, metrics *observability.Metrics) *CachedLookup {
	return &CachedLookup{
		inner:   inner,
		cache:   newLRUCache[int, bool](maxEntries),
		metrics: metrics,
	}
}

// NorthingFirst implements dsg.AxisOrderLookup.
func (c *CachedLookup) NorthingFirst(srid int) (bool, error) {
	if northing, ok := c.cache.get(srid); ok {
		c.metrics.CRSLookups.WithLabelValues(observability.CRSCacheHit).Inc()
		return northing, nil
	}
	northing, err := c.inner.NorthingFirst(srid)
	if err != nil {
		// Failures are not cached so a resolver outage can recover.
		return false, err
	}
	c.cache.put(srid, northing)
	return northing, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
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

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *entry[K, V]) {
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

func (c *lruCache[K, V]) remove(e *entry[K, V]) {
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

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
