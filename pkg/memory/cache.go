// Package memory provides the buffer pool: the page cache that heap files and
// scans go through to obtain lock-protected page instances.
package memory

import (
	"github.com/dgraph-io/ristretto/v2"

	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

// cleanCache holds pages that no transaction has locked or dirtied. Its
// contents always match disk, so anything it drops or refuses to admit can be
// re-read on demand.
type cleanCache struct {
	cache *ristretto.Cache[string, page.Page]
}

func newCleanCache(maxPages int64) (*cleanCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, page.Page]{
		NumCounters:        maxPages * 10,
		MaxCost:            maxPages,
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
		OnEvict: func(item *ristretto.Item[page.Page]) {
			if item.Value != nil {
				logging.WithPage(item.Value.GetID()).Debug("clean page evicted")
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return &cleanCache{cache: cache}, nil
}

func (c *cleanCache) Get(pid primitives.PageID) (page.Page, bool) {
	return c.cache.Get(pid.String())
}

// Put offers p to the cache. The admission policy may reject it; Wait makes an
// admitted page visible to the next Get.
func (c *cleanCache) Put(p page.Page) bool {
	ok := c.cache.Set(p.GetID().String(), p, 1)
	c.cache.Wait()
	return ok
}

func (c *cleanCache) Remove(pid primitives.PageID) {
	c.cache.Del(pid.String())
}

func (c *cleanCache) Hits() uint64 {
	return c.cache.Metrics.Hits()
}

func (c *cleanCache) Misses() uint64 {
	return c.cache.Metrics.Misses()
}

func (c *cleanCache) Clear() {
	c.cache.Clear()
}

func (c *cleanCache) Close() {
	c.cache.Close()
}
