package projection

import (
	"fmt"
	"sync"
	"sync/atomic"

	"projector/internal/plan"
)

// cacheEntry is published before its shape is built; ready is closed once
// shape or err is set.
type cacheEntry struct {
	ready chan struct{}
	shape *plan.Shape
	err   error
}

// shapeCache builds each shape at most once per key. Callers of one key wait
// for the in-flight build, distinct keys never share a lock. A failed build
// is removed before its waiters wake up, so they retry as builders and the
// error stays with the caller that triggered it.
type shapeCache struct {
	entries sync.Map // plan.ShapeKey -> *cacheEntry

	builds atomic.Int64
	hits   atomic.Int64
}

func (c *shapeCache) getOrBuild(key plan.ShapeKey, build func() (*plan.Shape, error)) (*plan.Shape, error) {
	for {
		fresh := &cacheEntry{ready: make(chan struct{})}

		actual, loaded := c.entries.LoadOrStore(key, fresh)
		entry := actual.(*cacheEntry)

		if !loaded {
			c.run(key, entry, build)
			return entry.shape, entry.err
		}

		<-entry.ready

		if entry.err == nil {
			c.hits.Add(1)
			return entry.shape, nil
		}
	}
}

func (c *shapeCache) run(key plan.ShapeKey, entry *cacheEntry, build func() (*plan.Shape, error)) {
	c.builds.Add(1)

	defer func() {
		if r := recover(); r != nil {
			entry.err = &ConstructionError{Shape: key.String(), Err: fmt.Errorf("panic: %v", r)}
		}

		if entry.err != nil {
			c.entries.CompareAndDelete(key, entry)
		}

		close(entry.ready)
	}()

	entry.shape, entry.err = build()
}

// count returns the number of successfully built shapes.
func (c *shapeCache) count() int {
	n := 0
	c.entries.Range(func(_, v any) bool {
		entry := v.(*cacheEntry)

		select {
		case <-entry.ready:
			if entry.err == nil {
				n++
			}
		default:
		}

		return true
	})

	return n
}
