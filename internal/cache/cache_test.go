package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

func newTestCache() *Cache {
	return New(Config{L1MaxEntries: 16, L1DefaultTTL: 50 * time.Millisecond}, nil)
}

func TestCache_SetThenGet_Hit(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	resp := domain.Response{Total: domain.Total{Value: 1, Relation: domain.RelationEq}}

	c.Set(ctx, "search:t:abc", resp, time.Second, time.Second)

	got := c.Get(ctx, "search:t:abc")
	if !got.Hit || got.Stale {
		t.Fatalf("expected fresh hit, got %+v", got)
	}
	if got.Response.Total.Value != 1 {
		t.Fatalf("unexpected response content: %+v", got.Response)
	}
}

func TestCache_Get_Miss(t *testing.T) {
	c := newTestCache()
	got := c.Get(context.Background(), "search:t:missing")
	if got.Hit {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestCache_StaleServedAfterExpiry(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	resp := domain.Response{Total: domain.Total{Value: 5, Relation: domain.RelationEq}}

	c.Set(ctx, "search:t:abc", resp, 10*time.Millisecond, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	got := c.Get(ctx, "search:t:abc")
	if !got.Hit || !got.Stale {
		t.Fatalf("expected stale hit with l2 disabled, got %+v", got)
	}
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	c.Set(ctx, "search:t:abc", domain.Response{}, time.Second, time.Second)
	c.Delete(ctx, "search:t:abc")

	if got := c.Get(ctx, "search:t:abc"); got.Hit {
		t.Fatalf("expected miss after delete, got %+v", got)
	}
}

func TestCache_Resize(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	c.Set(ctx, "search:t:a", domain.Response{}, time.Second, time.Second)
	c.Resize(4)

	// resize rebuilds the underlying LRU, so the prior entry is gone.
	if got := c.Get(ctx, "search:t:a"); got.Hit {
		t.Fatalf("expected entry dropped after resize, got %+v", got)
	}
}
