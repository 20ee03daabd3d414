package market

import (
	"container/list"
	"sync"
)

// BoundedLRUCache is a size-capped map that evicts the least recently read or
// written key once full. Safe for concurrent use.
type BoundedLRUCache[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]*list.Element
	order   *list.List
	maxSize int
	onEvict func(K, V)
}

type cacheItem[K comparable, V any] struct {
	key   K
	value V
}

func NewBoundedLRUCache[K comparable, V any](maxSize int) *BoundedLRUCache[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &BoundedLRUCache[K, V]{
		items:   make(map[K]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// OnEvict registers a callback run under the cache lock for every evicted entry.
func (c *BoundedLRUCache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

func (c *BoundedLRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheItem[K, V]).value, true
}

// Peek reads a value without touching recency.
func (c *BoundedLRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return elem.Value.(*cacheItem[K, V]).value, true
}

func (c *BoundedLRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheItem[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	for len(c.items) >= c.maxSize {
		c.removeOldest()
	}
	c.items[key] = c.order.PushFront(&cacheItem[K, V]{key: key, value: value})
}

// removeOldest must be called with mu held.
func (c *BoundedLRUCache[K, V]) removeOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	item := c.order.Remove(back).(*cacheItem[K, V])
	delete(c.items, item.key)
	if c.onEvict != nil {
		c.onEvict(item.key, item.value)
	}
}

func (c *BoundedLRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
