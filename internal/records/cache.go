package records

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// cache keeps recently used records in memory so that reconnecting players
// don't hit the database. Entries expire after ttl of not being refreshed.
type cache struct {
	cacheInstance *gocache.Cache
	ttl           time.Duration
}

func newCache(ttl time.Duration) *cache {
	return &cache{cacheInstance: gocache.New(ttl, time.Minute), ttl: ttl}
}

// put stores a copy of the record under its UUID.
func (c *cache) put(r *UserRecord) {
	cp := *r
	c.cacheInstance.Set(r.UUID.String(), &cp, c.ttl)
}

// get returns a copy of the cached record and whether it was found.
func (c *cache) get(key string) (*UserRecord, bool) {
	v, ok := c.cacheInstance.Get(key)
	if !ok {
		return nil, false
	}
	cp := *v.(*UserRecord)
	return &cp, true
}

func (c *cache) remove(key string) {
	c.cacheInstance.Delete(key)
}
