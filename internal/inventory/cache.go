package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DesumovJP/flowerpos/internal/notify"
	"github.com/DesumovJP/flowerpos/pkg/logger"
	"github.com/DesumovJP/flowerpos/pkg/metrics"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
)

// DefaultCacheTTL is how long a fetched item list stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Cache is the TTL-guarded item list every terminal view reads from. It is
// available-over-consistent: a failed refresh keeps the previous list visible,
// because the register must keep working on a flaky connection.
type Cache struct {
	fetcher  Fetcher
	ttl      time.Duration
	notifier notify.Notifier
	logg     *logger.Logger
	metrics  *metrics.POSMetrics
	now      func() time.Time

	mu        sync.Mutex
	items     []Item
	lastFetch time.Time
	lastErr   error
	inflight  chan struct{}
}

// CacheParams collects the cache dependencies.
type CacheParams struct {
	Fetcher  Fetcher
	TTL      time.Duration
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.POSMetrics
}

// NewCache constructs the inventory cache.
func NewCache(params CacheParams) (*Cache, error) {
	if params.Fetcher == nil {
		return nil, fmt.Errorf("inventory fetcher required")
	}
	if params.TTL <= 0 {
		params.TTL = DefaultCacheTTL
	}
	if params.Notifier == nil {
		params.Notifier = notify.Noop{}
	}
	return &Cache{
		fetcher:  params.Fetcher,
		ttl:      params.TTL,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Fetch loads the item list when forced, never fetched, or stale past the TTL.
// Concurrent callers share a single in-flight request.
func (c *Cache) Fetch(ctx context.Context, force bool) error {
	c.mu.Lock()
	if !force && !c.staleLocked() {
		c.mu.Unlock()
		c.metrics.IncCacheFetch("hit")
		return nil
	}

	if c.inflight != nil {
		// Another caller is already fetching; wait for its outcome.
		done := c.inflight
		c.mu.Unlock()
		<-done
		c.mu.Lock()
		err := c.lastErr
		c.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	items, err := c.fetcher.FetchItems(ctx)

	c.mu.Lock()
	c.inflight = nil
	if err != nil {
		// Keep the previous list; stale beats empty on the shop floor.
		c.lastErr = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory fetch failed")
		c.mu.Unlock()
		close(done)
		c.metrics.IncCacheFetch("error")
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "inventory.fetch.failed")
		}
		return c.LastError()
	}

	c.items = items
	c.lastFetch = c.now()
	c.lastErr = nil
	c.mu.Unlock()
	close(done)

	c.metrics.IncCacheFetch("refresh")
	c.notifier.Notify(ctx)
	return nil
}

// Refresh forces a fetch regardless of freshness.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.Fetch(ctx, true)
}

// Invalidate clears the fetch timestamp without dropping the cached list, so
// the next Fetch hits the network while stale data stays visible.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.lastFetch = time.Time{}
	c.mu.Unlock()
}

// Items returns a copy of the cached list.
func (c *Cache) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// LastFetchedAt reports when the list was last replaced by a successful fetch.
func (c *Cache) LastFetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFetch
}

// LastError returns the most recent fetch error, nil after a successful fetch.
func (c *Cache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Add inserts an item into the cached list optimistically. Local mutations do
// not touch the fetch timestamp.
func (c *Cache) Add(ctx context.Context, item Item) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	c.notifier.Notify(ctx)
}

// Update replaces the cached item with the same ID, if present.
func (c *Cache) Update(ctx context.Context, item Item) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i] = item
			break
		}
	}
	c.mu.Unlock()
	c.notifier.Notify(ctx)
}

// Remove drops the cached item with the given ID, if present.
func (c *Cache) Remove(ctx context.Context, itemID string) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notifier.Notify(ctx)
}

// AdjustOnHand shifts the cached on-hand quantity for an item, if present.
func (c *Cache) AdjustOnHand(ctx context.Context, itemID string, delta int) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].OnHand += delta
			break
		}
	}
	c.mu.Unlock()
	c.notifier.Notify(ctx)
}

func (c *Cache) staleLocked() bool {
	if c.lastFetch.IsZero() {
		return true
	}
	return c.now().Sub(c.lastFetch) > c.ttl
}
