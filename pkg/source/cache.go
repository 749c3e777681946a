package source

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// DefaultCacheTTL is how long a dataset is reused before it is loaded again.
const DefaultCacheTTL = 10 * time.Minute

// Cache wraps a Loader and reuses a successful load for a TTL. Concurrent
// loads are collapsed into one and failures are never cached.
type Cache struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu       sync.Mutex
	dataset  types.Dataset
	cachedAt time.Time
}

// NewCache returns a Cache around loader.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Load implements Loader.
func (c *Cache) Load(ctx context.Context) (types.Dataset, error) {
	c.mu.Lock()
	if !c.cachedAt.IsZero() && c.now().Sub(c.cachedAt) < c.ttl {
		ds := c.dataset
		c.mu.Unlock()
		return ds, nil
	}
	c.mu.Unlock()

	// the shared load outlives the caller that started it
	ch := c.group.DoChan("dataset", func() (any, error) {
		ds, err := c.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			return types.Dataset{}, err
		}
		c.mu.Lock()
		c.dataset = ds
		c.cachedAt = c.now()
		c.mu.Unlock()
		return ds, nil
	})
	select {
	case <-ctx.Done():
		return types.Dataset{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return types.Dataset{}, res.Err
		}
		return res.Val.(types.Dataset), nil
	}
}

// Invalidate drops the cached dataset so the next Load goes upstream.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = types.Dataset{}
	c.cachedAt = time.Time{}
}
