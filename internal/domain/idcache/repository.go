package idcache

import "context"

// Repository persists the id cache. Load on a missing file returns an
// empty cache; the cache exists from the first resolved pairing onward
// and is never deleted.
type Repository interface {
	Load(ctx context.Context) (*Cache, error)
	Save(ctx context.Context, c *Cache) error
}
