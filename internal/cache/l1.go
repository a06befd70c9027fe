package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type l1Entry struct {
	value     []byte
	expiresAt time.Time
}

// l1 is an in-process LRU cache with per-entry TTL layered on top of
// hashicorp/golang-lru's recency eviction.
type l1 struct {
	mu         sync.RWMutex
	cache      *lru.Cache[string, l1Entry]
	maxEntries int
	defaultTTL time.Duration
}

func newL1(maxEntries int, defaultTTL time.Duration) *l1 {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c, err := lru.New[string, l1Entry](maxEntries)
	if err != nil {
		panic(fmt.Sprintf("cache: invalid l1 size %d: %v", maxEntries, err))
	}
	return &l1{cache: c, maxEntries: maxEntries, defaultTTL: defaultTTL}
}

// get returns the stored bytes if present. fresh reports whether the entry
// is within its TTL; stale reports whether it is present but expired, in
// which case the caller may still choose to serve it as a degraded result.
func (l *l1) get(key string) (value []byte, fresh bool, stale bool) {
	l.mu.RLock()
	entry, ok := l.cache.Get(key)
	l.mu.RUnlock()
	if !ok {
		return nil, false, false
	}
	if time.Now().Before(entry.expiresAt) {
		return entry.value, true, false
	}
	return entry.value, false, true
}

func (l *l1) set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	l.mu.Lock()
	l.cache.Add(key, l1Entry{value: value, expiresAt: time.Now().Add(ttl)})
	l.mu.Unlock()
}

func (l *l1) delete(key string) {
	l.mu.Lock()
	l.cache.Remove(key)
	l.mu.Unlock()
}

func (l *l1) clear() {
	l.mu.Lock()
	l.cache.Purge()
	l.mu.Unlock()
}

func (l *l1) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache.Len()
}

// resize rebuilds the cache when the configured max changes, whether it
// grows or shrinks, and drops every entry rather than migrating them,
// since the cache repopulates itself from normal traffic.
func (l *l1) resize(maxEntries int) {
	if maxEntries <= 0 || maxEntries == l.maxEntries {
		return
	}
	c, err := lru.New[string, l1Entry](maxEntries)
	if err != nil {
		return
	}
	l.mu.Lock()
	l.cache = c
	l.maxEntries = maxEntries
	l.mu.Unlock()
}
