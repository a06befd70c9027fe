package tenant

import (
	"sync"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// RoutingLookup resolves the routing strategy for a tenant not yet seen by
// this process. The lookup itself must never fail: an unknown tenant gets
// a safe default rather than an error.
type RoutingLookup interface {
	Lookup(tenantID string) domain.RoutingStrategy
}

// defaultLookup routes every tenant to one shared index. Real deployments
// can plug in a lookup backed by tenant metadata behind the same interface.
type defaultLookup struct {
	sharedIndex string
}

func (d defaultLookup) Lookup(string) domain.RoutingStrategy {
	return domain.RoutingStrategy{
		IndexName:    d.sharedIndex,
		ShardCount:   1,
		ReplicaCount: 1,
		Strategy:     domain.RoutingShared,
	}
}

// NewDefaultLookup returns a RoutingLookup with a hard-coded shared-index
// default.
func NewDefaultLookup(sharedIndex string) RoutingLookup {
	return defaultLookup{sharedIndex: sharedIndex}
}

// Router memoizes each tenant's routing strategy for the process lifetime
// in a mutex-guarded map, re-checking under the write lock so each tenant
// is looked up once.
type Router struct {
	mu     sync.RWMutex
	memo   map[string]domain.RoutingStrategy
	lookup RoutingLookup
}

func NewRouter(lookup RoutingLookup) *Router {
	return &Router{memo: make(map[string]domain.RoutingStrategy), lookup: lookup}
}

// Route returns the routing strategy for tenantID, computing and caching it
// on first use.
func (r *Router) Route(tenantID string) domain.RoutingStrategy {
	r.mu.RLock()
	strategy, ok := r.memo[tenantID]
	r.mu.RUnlock()
	if ok {
		return strategy
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if strategy, ok := r.memo[tenantID]; ok {
		return strategy
	}
	strategy = r.lookup.Lookup(tenantID)
	r.memo[tenantID] = strategy
	return strategy
}

// Invalidate drops the memoized strategy for a tenant, forcing the next
// Route call to consult the lookup again.
func (r *Router) Invalidate(tenantID string) {
	r.mu.Lock()
	delete(r.memo, tenantID)
	r.mu.Unlock()
}
