package security

import (
	"container/list"
	"time"
)

// lruEntry is a keyed value with its last access time
type lruEntry[V any] struct {
	key        string
	value      V
	lastAccess time.Time
}

// lruIndex bounds the number of tracked keys, evicting the least recently used.
// It is not safe for concurrent use; callers hold their own lock.
type lruIndex[V any] struct {
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int        // 0 = unlimited
	evictions  int64
}

func newLRUIndex[V any](maxEntries int) *lruIndex[V] {
	return &lruIndex[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// touch returns the entry for key, creating it with create when absent.
// evicted is the key dropped to make room, if any.
func (l *lruIndex[V]) touch(key string, now time.Time, create func() V) (entry *lruEntry[V], evicted string) {
	if elem, ok := l.items[key]; ok {
		l.order.MoveToFront(elem)
		entry = elem.Value.(*lruEntry[V])
		entry.lastAccess = now
		return entry, ""
	}

	if l.maxEntries > 0 && len(l.items) >= l.maxEntries {
		evicted = l.evictOldest()
	}

	entry = &lruEntry[V]{key: key, value: create(), lastAccess: now}
	l.items[key] = l.order.PushFront(entry)
	return entry, evicted
}

func (l *lruIndex[V]) evictOldest() string {
	elem := l.order.Back()
	if elem == nil {
		return ""
	}
	entry := elem.Value.(*lruEntry[V])
	delete(l.items, entry.key)
	l.order.Remove(elem)
	l.evictions++
	return entry.key
}

// sweep drops entries idle for longer than maxIdle and returns how many were removed
func (l *lruIndex[V]) sweep(now time.Time, maxIdle time.Duration) int {
	removed := 0
	// Walk from the back: the least recently used entries are there.
	for elem := l.order.Back(); elem != nil; {
		entry := elem.Value.(*lruEntry[V])
		if now.Sub(entry.lastAccess) <= maxIdle {
			break
		}
		prev := elem.Prev()
		delete(l.items, entry.key)
		l.order.Remove(elem)
		removed++
		elem = prev
	}
	return removed
}

func (l *lruIndex[V]) len() int {
	return len(l.items)
}
