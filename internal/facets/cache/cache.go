// Package cache stores computed facet results in Redis, keyed by a hash of
// the normalized request, and collapses concurrent computations of the same
// request into one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/redis"
)

const keyPrefix = "facets:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type FacetCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *FacetCache {
	return &FacetCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "facet-cache"),
	}
}

func (c *FacetCache) Get(ctx context.Context, req facets.Request) (*facets.Result, bool) {
	key, err := BuildKey(req)
	if err != nil {
		c.logger.Error("cache key failed", "error", err)
		c.miss()
		return nil, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrNil) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result facets.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "slot", req.Slot, "key", key)
	return &result, true
}

func (c *FacetCache) Set(ctx context.Context, req facets.Request, result *facets.Result) {
	key, err := BuildKey(req)
	if err != nil {
		c.logger.Error("cache key failed", "error", err)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req, or runs computeFn once per
// key across concurrent callers and caches what it returns. The bool reports
// a cache hit.
func (c *FacetCache) GetOrCompute(
	ctx context.Context,
	req facets.Request,
	computeFn func() (*facets.Result, error),
) (*facets.Result, bool, error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	key, err := BuildKey(req)
	if err != nil {
		return nil, false, err
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*facets.Result), false, nil
}

func (c *FacetCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating facet cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *FacetCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey hashes the request. encoding/json writes map keys sorted, so equal
// requests always produce equal keys.
func BuildKey(req facets.Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("building cache key: %w", err)
	}
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16]), nil
}

func (c *FacetCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.FacetCacheHits.Inc()
	}
}

func (c *FacetCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.FacetCacheMisses.Inc()
	}
}
