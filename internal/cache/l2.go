package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errCacheMiss  = errors.New("cache: miss")
	errL2Disabled = errors.New("cache: l2 disabled")
)

// l2 is the optional shared cache tier. Entries are opaque bytes to this
// package's callers; only cache.go's encode/decode know the JSON shape
// inside them.
type l2 struct {
	rc      *redis.Client
	enabled bool
}

func newL2(rc *redis.Client) *l2 {
	return &l2{rc: rc, enabled: rc != nil}
}

func (l *l2) get(ctx context.Context, key string) ([]byte, error) {
	if !l.enabled {
		return nil, errL2Disabled
	}
	val, err := l.rc.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errCacheMiss
		}
		return nil, err
	}
	return val, nil
}

func (l *l2) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !l.enabled {
		return errL2Disabled
	}
	return l.rc.Set(ctx, key, value, ttl).Err()
}

func (l *l2) delete(ctx context.Context, key string) error {
	if !l.enabled {
		return errL2Disabled
	}
	return l.rc.Del(ctx, key).Err()
}

// Ping reports whether the L2 tier is reachable, used by the health prober.
// A disabled L2 tier reports healthy since it is intentionally absent.
func (l *l2) Ping(ctx context.Context) bool {
	if !l.enabled {
		return true
	}
	return l.rc.Ping(ctx).Err() == nil
}
