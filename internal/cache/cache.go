// Package cache implements the gateway's two-level response cache: an
// in-process LRU (L1) in front of an optional shared Redis tier (L2).
// Every operation is best-effort: a cache fault degrades to a miss rather
// than failing the caller's request.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/metrics"
)

// Config configures both cache tiers. RedisClient is nil when L2 is
// disabled.
type Config struct {
	L1MaxEntries int
	L1DefaultTTL time.Duration
	L2Enabled    bool
	RedisClient  *redis.Client
}

// Result is what Get returns.
type Result struct {
	Response domain.Response
	Hit      bool
	Stale    bool
	Tier     string
}

// Cache is the two-level cache in front of engine dispatch. All keys are
// expected to already be tenant-prefixed fingerprints from
// internal/fingerprint; this package never iterates or wildcards keys.
type Cache struct {
	l1     *l1
	l2     *l2
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Cache {
	var rc *redis.Client
	if cfg.L2Enabled {
		rc = cfg.RedisClient
	}
	return &Cache{l1: newL1(cfg.L1MaxEntries, cfg.L1DefaultTTL), l2: newL2(rc), logger: logger}
}

// Get consults L1, then L2 on an L1 miss, repopulating L1 on an L2 hit. If
// both a live lookup and the fresh L1 entry are unavailable but a stale L1
// entry exists, it is served with Stale set. This is the documented
// stale-on-error behavior, observable only via metrics, never in the
// response body.
func (c *Cache) Get(ctx context.Context, key string) Result {
	raw, fresh, stale := c.l1.get(key)
	if fresh {
		if resp, err := decode(raw); err == nil {
			metrics.CacheHitsTotal.WithLabelValues("l1").Inc()
			return Result{Response: resp, Hit: true, Tier: "l1"}
		}
	}

	if c.l2.enabled {
		l2raw, err := c.l2.get(ctx, key)
		switch {
		case err == nil:
			if resp, decErr := decode(l2raw); decErr == nil {
				c.l1.set(key, l2raw, 0)
				metrics.CacheHitsTotal.WithLabelValues("l2").Inc()
				return Result{Response: resp, Hit: true, Tier: "l2"}
			}
		case err != errCacheMiss:
			metrics.CacheFaultsTotal.Inc()
			if c.logger != nil {
				c.logger.Warn("l2 cache read failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	if stale {
		if resp, err := decode(raw); err == nil {
			metrics.CacheStaleServedTotal.Inc()
			return Result{Response: resp, Hit: true, Stale: true, Tier: "l1"}
		}
	}

	tier := "l1"
	if c.l2.enabled {
		tier = "l2"
	}
	metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	return Result{}
}

// Set writes through both tiers with independently chosen TTLs. The
// handler decides TTL by classification, not this package.
func (c *Cache) Set(ctx context.Context, key string, resp domain.Response, l1TTL, l2TTL time.Duration) {
	raw, err := encode(resp)
	if err != nil {
		return
	}
	c.l1.set(key, raw, l1TTL)
	if c.l2.enabled {
		if err := c.l2.set(ctx, key, raw, l2TTL); err != nil {
			metrics.CacheFaultsTotal.Inc()
			if c.logger != nil {
				c.logger.Warn("l2 cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	c.l1.delete(key)
	if c.l2.enabled {
		_ = c.l2.delete(ctx, key)
	}
}

// Clear purges L1 only. L2, if enabled, is shared infrastructure the
// gateway does not own and relies on TTL expiry instead of explicit clears.
func (c *Cache) Clear() {
	c.l1.clear()
}

// Resize adjusts the L1 capacity by rebuilding it; any change of size
// drops the current L1 entries.
func (c *Cache) Resize(maxEntries int) {
	c.l1.resize(maxEntries)
}

// L1Len reports the current L1 entry count. Nothing calls it to update
// metrics.CacheL1Size, so that gauge is not set by this repository.
func (c *Cache) L1Len() int {
	return c.l1.len()
}

// PingL2 reports L2 reachability for the health prober.
func (c *Cache) PingL2(ctx context.Context) bool {
	return c.l2.Ping(ctx)
}

func encode(resp domain.Response) ([]byte, error) { return json.Marshal(resp) }

func decode(raw []byte) (domain.Response, error) {
	var resp domain.Response
	err := json.Unmarshal(raw, &resp)
	return resp, err
}
