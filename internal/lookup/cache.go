// Package lookup is a read-through cache of upstream reference tables keyed
// by lookup name (regions, genders, relationship types, ...).
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"registrar/internal/lookup/metrics"
	"registrar/pkg/platform/sentinel"
)

// DefaultTTL is how long a fetched table is served before it is refetched.
const DefaultTTL = 10 * time.Minute

// Fetcher loads one lookup table from the upstream backend.
type Fetcher interface {
	FetchLookup(ctx context.Context, name string) ([]Entity, error)
}

// SharedStore is an optional tier shared between replicas. Load returns
// sentinel.ErrCacheMiss when nothing is stored under name.
type SharedStore interface {
	Load(ctx context.Context, name string) ([]Entity, time.Time, error)
	Save(ctx context.Context, name string, entities []Entity, fetchedAt time.Time) error
	Delete(ctx context.Context, name string) error
}

type entry struct {
	entities  []Entity
	fetchedAt time.Time
}

// Cache serves lookup tables, fetching at most once per name at a time.
type Cache struct {
	fetcher Fetcher
	shared  SharedStore
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the staleness window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithSharedStore(store SharedStore) Option {
	return func(c *Cache) {
		c.shared = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock overrides the time source; tests use it to step past the window.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New constructs a Cache in front of fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the table for name, fetching it when absent or older than the
// staleness window. Concurrent callers for the same name share one fetch.
func (c *Cache) Get(ctx context.Context, name string) Result {
	if e, ok := c.fresh(name); ok {
		c.metrics.ObserveHit(name, "local")
		return e.result()
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		if e, ok := c.fresh(name); ok {
			return e, nil
		}
		// A departing caller must not fail the callers sharing this fetch.
		return c.load(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		return Result{Err: err}
	}
	return v.(entry).result()
}

// Children returns the rows of name whose parent is parentID.
func (c *Cache) Children(ctx context.Context, name string, parentID int64) Result {
	res := c.Get(ctx, name)
	if res.Failed() {
		return res
	}
	res.Entities = Children(res.Entities, parentID)
	return res
}

// Label resolves id within name. The boolean is false when the table could
// not be loaded or holds no such row.
func (c *Cache) Label(ctx context.Context, name string, id int64) (string, bool) {
	res := c.Get(ctx, name)
	if res.Failed() {
		return "", false
	}
	return res.Label(id)
}

// Invalidate drops name from every tier so the next Get refetches it.
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()

	if c.shared == nil {
		return nil
	}
	return c.shared.Delete(ctx, name)
}

func (c *Cache) fresh(name string) (entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return entry{}, false
	}
	return e, true
}

func (c *Cache) load(ctx context.Context, name string) (entry, error) {
	if e, ok := c.loadShared(ctx, name); ok {
		c.metrics.ObserveHit(name, "shared")
		c.store(name, e)
		return e, nil
	}

	c.metrics.ObserveMiss(name)
	start := c.now()
	entities, err := c.fetcher.FetchLookup(ctx, name)
	c.metrics.ObserveFetch(name, time.Since(start), err)
	if err != nil {
		c.logger.WarnContext(ctx, "lookup fetch failed",
			"lookup", name,
			"error", err,
		)
		return entry{}, err
	}

	e := entry{entities: copyEntities(entities), fetchedAt: c.now()}
	c.store(name, e)

	if c.shared != nil {
		if err := c.shared.Save(ctx, name, e.entities, e.fetchedAt); err != nil {
			c.logger.WarnContext(ctx, "lookup shared store save failed",
				"lookup", name,
				"error", err,
			)
		}
	}
	return e, nil
}

func (c *Cache) loadShared(ctx context.Context, name string) (entry, bool) {
	if c.shared == nil {
		return entry{}, false
	}
	entities, fetchedAt, err := c.shared.Load(ctx, name)
	if err != nil {
		if !errors.Is(err, sentinel.ErrCacheMiss) {
			c.logger.WarnContext(ctx, "lookup shared store load failed",
				"lookup", name,
				"error", err,
			)
		}
		return entry{}, false
	}
	if c.now().Sub(fetchedAt) >= c.ttl {
		return entry{}, false
	}
	return entry{entities: copyEntities(entities), fetchedAt: fetchedAt}, true
}

func (c *Cache) store(name string, e entry) {
	c.mu.Lock()
	c.entries[name] = e
	c.mu.Unlock()
}

func (e entry) result() Result {
	return Result{Entities: copyEntities(e.entities), FetchedAt: e.fetchedAt}
}
