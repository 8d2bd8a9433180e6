package lane

import (
	"container/list"
	"time"

	"github.com/google/uuid"
)

// dedupEntry records one idempotency-key insertion.
type dedupEntry struct {
	key        string
	taskID     uuid.UUID
	insertedAt time.Time
}

// dedupCache maps idempotency key -> (task id, insertion time), bounded by
// a sliding window. Entries are kept in an insertion-ordered list (oldest
// first, since every entry shares the same window) so a lookup can purge
// everything that has aged out in amortized O(1) without scanning the
// whole cache — this is what keeps a flood of unique keys from growing the
// cache without bound (see the Design Notes on dedup cache growth).
type dedupCache struct {
	window  time.Duration
	order   *list.List // of *dedupEntry, ascending insertedAt
	byKey   map[string]*list.Element
}

func newDedupCache(window time.Duration) *dedupCache {
	return &dedupCache{
		window: window,
		order:  list.New(),
		byKey:  make(map[string]*list.Element),
	}
}

// lookup purges expired entries, then returns the cached task id for key,
// if any remains.
func (c *dedupCache) lookup(key string, now time.Time) (uuid.UUID, bool) {
	c.purgeExpired(now)
	elem, ok := c.byKey[key]
	if !ok {
		return uuid.Nil, false
	}
	return elem.Value.(*dedupEntry).taskID, true
}

// insert records a successful first-time enqueue. Caller has already
// confirmed key is not present (or accepts overwriting a just-expired one).
func (c *dedupCache) insert(key string, taskID uuid.UUID, now time.Time) {
	if elem, ok := c.byKey[key]; ok {
		c.order.Remove(elem)
	}
	entry := &dedupEntry{key: key, taskID: taskID, insertedAt: now}
	c.byKey[key] = c.order.PushBack(entry)
}

// purgeExpired drops every entry whose window has elapsed as of now.
// Entries are ordered by insertion time, so the first non-expired entry
// ends the scan.
func (c *dedupCache) purgeExpired(now time.Time) {
	for {
		front := c.order.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*dedupEntry)
		if now.Sub(entry.insertedAt) < c.window {
			return
		}
		c.order.Remove(front)
		delete(c.byKey, entry.key)
	}
}
