package dedup

import (
	"container/list"
	"time"
)

// seenCache is a bounded LRU of fingerprints known to be present in the
// store. It only accelerates the duplicate path; novelty is always
// decided by the persistent store, never by the cache.
type seenCache struct {
	max   int
	order *list.List
	items map[string]*list.Element
}

type cacheEntry struct {
	fp        string
	firstSeen time.Time
}

func newSeenCache(max int) *seenCache {
	if max <= 0 {
		max = 1
	}
	return &seenCache{max: max, order: list.New(), items: make(map[string]*list.Element, max)}
}

func (c *seenCache) get(fp string) (time.Time, bool) {
	el, ok := c.items[fp]
	if !ok {
		return time.Time{}, false
	}
	c.order.MoveToBack(el)
	return el.Value.(*cacheEntry).firstSeen, true
}

func (c *seenCache) add(fp string, firstSeen time.Time) {
	if el, ok := c.items[fp]; ok {
		el.Value.(*cacheEntry).firstSeen = firstSeen
		c.order.MoveToBack(el)
		return
	}
	if len(c.items) >= c.max {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).fp)
		}
	}
	c.items[fp] = c.order.PushBack(&cacheEntry{fp: fp, firstSeen: firstSeen})
}

func (c *seenCache) remove(fp string) {
	if el, ok := c.items[fp]; ok {
		c.order.Remove(el)
		delete(c.items, fp)
	}
}

func (c *seenCache) len() int { return len(c.items) }
