package gateway

import (
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/fingerprint"
	"github.com/kailas-cloud/searchgate/internal/tenant"
)

// RoutingExplain describes which engine and index a request would be
// dispatched to.
type RoutingExplain struct {
	Engine string `json:"engine"`
	Index  string `json:"index"`
	Reason string `json:"reason"`
}

// EstimatedCost surfaces the classifier's cost model without running it.
type EstimatedCost struct {
	ComplexityScore    float64 `json:"complexity_score"`
	ExpectedLatencyMs  float64 `json:"expected_latency_ms"`
}

// CacheStrategyExplain describes how the request would interact with the
// cache, without ever touching it.
type CacheStrategyExplain struct {
	Cacheable  bool   `json:"cacheable"`
	Key        string `json:"key"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// ExplainResult is the full /explain response body.
type ExplainResult struct {
	Classification domain.Classification `json:"classification"`
	Routing        RoutingExplain        `json:"routing"`
	EstimatedCost  EstimatedCost         `json:"estimated_cost"`
	CacheStrategy  CacheStrategyExplain  `json:"cache_strategy"`
}

// Explain runs tenant resolution, authorization, classification, and
// fingerprinting, the same pipeline prefix as Search, but never touches
// an engine adapter or the cache. Its cache_strategy.key is guaranteed to
// equal what Search would compute for the same body, since it goes through
// the same fingerprint.Search call.
func (g *Gateway) Explain(req domain.Request, tenantID string, claims domain.Claims) (ExplainResult, error) {
	authorized, err := tenant.ApplyAuthorization(req, tenantID, claims)
	if err != nil {
		return ExplainResult{}, err
	}
	if err := validatePage(authorized.Page); err != nil {
		return ExplainResult{}, err
	}
	if authorized.Page.Size == nil {
		defaultSize := domain.DefaultPageSize
		authorized.Page.Size = &defaultSize
	}

	classification := g.classifier.Classify(authorized)
	key := fingerprint.Search(tenantID, subsetOf(authorized))
	routing := g.router.Route(tenantID)

	engineName := "simple"
	reason := classification.Reason
	switch classification.Type {
	case domain.TypeComplex:
		engineName = "complex"
	case domain.TypeHybrid:
		engineName = "hybrid"
	}

	ttl := g.ttl.ttlFor(classification, domain.Response{})
	if classification.Type == domain.TypeSimple {
		ttl = g.ttl.SimpleTTL
	}
	if !classification.Cacheable {
		ttl = 0
	}

	return ExplainResult{
		Classification: classification,
		Routing: RoutingExplain{
			Engine: engineName,
			Index:  routing.IndexName,
			Reason: reason,
		},
		EstimatedCost: EstimatedCost{
			ComplexityScore:   classification.ComplexityScore,
			ExpectedLatencyMs: classification.EstimatedLatencyMs,
		},
		CacheStrategy: CacheStrategyExplain{
			Cacheable:  classification.Cacheable,
			Key:        key,
			TTLSeconds: int(ttl / time.Second),
		},
	}, nil
}
