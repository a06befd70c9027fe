// Package gateway orchestrates the /search, /suggest, and /explain
// pipelines: tenant resolution and authorization, fingerprinting, cache
// lookup, classification, dispatch under deadline, cache write-back, and
// response assembly with performance and debug metadata.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/cache"
	"github.com/kailas-cloud/searchgate/internal/classifier"
	"github.com/kailas-cloud/searchgate/internal/dispatcher"
	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/fingerprint"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	"github.com/kailas-cloud/searchgate/internal/tenant"
)

// TTLPolicy maps a classification to the L1/L2 TTLs the handler writes the
// cache with; simple, small-result responses live longest, large or complex
// ones shortest. Exact durations are configuration, not contract.
type TTLPolicy struct {
	SimpleTTL       time.Duration
	SmallResultTTL  time.Duration
	DefaultTTL      time.Duration
	SmallResultSize int
	SuggestTTL      time.Duration
}

// DefaultTTLPolicy mirrors reasonable production defaults; deployments
// override these via internal/config.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		SimpleTTL:       5 * time.Minute,
		SmallResultTTL:  10 * time.Minute,
		DefaultTTL:      2 * time.Minute,
		SmallResultSize: 5,
		SuggestTTL:      5 * time.Minute,
	}
}

func (p TTLPolicy) ttlFor(classification domain.Classification, resp domain.Response) time.Duration {
	if resp.Total.Value > 0 && resp.Total.Value <= p.SmallResultSize {
		return p.SmallResultTTL
	}
	if classification.Type == domain.TypeSimple {
		return p.SimpleTTL
	}
	return p.DefaultTTL
}

// Gateway wires the classifier, tenant resolver/router, cache, and
// dispatcher into the three request pipelines.
type Gateway struct {
	classifier    *classifier.Classifier
	router        *tenant.Router
	cache         *cache.Cache
	dispatcher    *dispatcher.Dispatcher
	suggestEngine engine.Adapter
	ttl           TTLPolicy
	logger        *zap.Logger
}

func New(c *classifier.Classifier, router *tenant.Router, ch *cache.Cache, d *dispatcher.Dispatcher, suggestEngine engine.Adapter, ttl TTLPolicy, logger *zap.Logger) *Gateway {
	return &Gateway{
		classifier:    c,
		router:        router,
		cache:         ch,
		dispatcher:    d,
		suggestEngine: suggestEngine,
		ttl:           ttl,
		logger:        logger,
	}
}

// Search runs the full /search pipeline: resolve and authorize the tenant,
// validate the page descriptor, fingerprint the request, serve from cache
// on a hit, otherwise classify, dispatch, and write back a cacheable
// non-partial result.
func (g *Gateway) Search(ctx context.Context, req domain.Request, tenantID string, claims domain.Claims) (domain.Response, error) {
	authorized, err := tenant.ApplyAuthorization(req, tenantID, claims)
	if err != nil {
		return domain.Response{}, err
	}
	if err := validatePage(authorized.Page); err != nil {
		return domain.Response{}, err
	}
	if authorized.Page.Size == nil {
		defaultSize := domain.DefaultPageSize
		authorized.Page.Size = &defaultSize
	}

	start := time.Now()
	key := fingerprint.Search(tenantID, subsetOf(authorized))

	if cached := g.cache.Get(ctx, key); cached.Hit && !cached.Stale {
		resp := cached.Response
		resp.Performance.Cached = true
		resp.Performance.TookMs = time.Since(start).Milliseconds()

		if g.logger != nil {
			classificationType := ""
			if resp.Debug != nil {
				classificationType = string(resp.Debug.Classification.Type)
			}
			g.logger.Info("search served from cache",
				zap.String("tenant", tenantID),
				zap.String("fingerprint", key),
				zap.String("classification", classificationType),
				zap.Int64("elapsed_ms", resp.Performance.TookMs),
			)
		}

		return resp, nil
	}

	classification := g.classifier.Classify(authorized)
	metrics.ClassificationTotal.WithLabelValues(string(classification.Type)).Inc()

	resp, err := g.dispatcher.Dispatch(ctx, key, authorized, classification)
	if err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(tenantID, string(classification.Type)).Inc()
		if !errors.Is(err, domain.ErrEngineError) && !errors.Is(err, domain.ErrBadRequest) {
			err = fmt.Errorf("%w: %v", domain.ErrEngineError, err)
		}
		return domain.Response{}, err
	}

	resp.Performance.TookMs = time.Since(start).Milliseconds()
	resp.Debug = &domain.Debug{
		Classification: classification,
		CacheKey:       key,
		TenantRouting:  string(g.router.Route(tenantID).Strategy),
	}

	if classification.Cacheable && !resp.Performance.Partial {
		ttl := g.ttl.ttlFor(classification, resp)
		g.cache.Set(ctx, key, resp, ttl, ttl)
	}

	metrics.RequestsTotal.WithLabelValues(tenantID, string(classification.Type)).Inc()
	metrics.RequestLatency.WithLabelValues(string(classification.Type)).Observe(time.Since(start).Seconds())

	if g.logger != nil {
		g.logger.Info("search dispatched",
			zap.String("tenant", tenantID),
			zap.String("fingerprint", key),
			zap.String("classification", string(classification.Type)),
			zap.Int64("elapsed_ms", resp.Performance.TookMs),
		)
	}

	return resp, nil
}

// Suggest runs the /suggest pipeline: always routed to the simple engine's
// suggest capability, with a fixed cache TTL rather than a classification-
// derived one.
func (g *Gateway) Suggest(ctx context.Context, prefix string, entity []string, limit int, tenantID string, claims domain.Claims) (domain.Response, error) {
	if tenantID == "" {
		return domain.Response{}, domain.ErrMissingTenant
	}
	for _, role := range claims.Roles {
		if role == "suspended" {
			return domain.Response{}, domain.ErrForbidden
		}
	}
	if prefix == "" || len(prefix) > 50 {
		return domain.Response{}, fmt.Errorf("%w: prefix must be 1..50 characters", domain.ErrBadRequest)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 20 {
		return domain.Response{}, fmt.Errorf("%w: limit must be <= 20", domain.ErrBadRequest)
	}

	start := time.Now()
	key := fingerprint.Suggest(tenantID, subsetOf(domain.Request{
		Query:   prefix,
		Filters: entityFilter(entity),
		Page:    domain.Page{Size: &limit},
	}))

	if cached := g.cache.Get(ctx, key); cached.Hit && !cached.Stale {
		resp := cached.Response
		resp.Performance.Cached = true
		resp.Performance.TookMs = time.Since(start).Milliseconds()

		if g.logger != nil {
			g.logger.Info("suggest served from cache",
				zap.String("tenant", tenantID),
				zap.String("fingerprint", key),
				zap.String("classification", string(domain.TypeSimple)),
				zap.Int64("elapsed_ms", resp.Performance.TookMs),
			)
		}

		return resp, nil
	}

	resp, err := g.suggestEngine.Suggest(ctx, engine.SuggestRequest{
		TenantID: tenantID,
		Prefix:   prefix,
		Entity:   entity,
		Limit:    limit,
	})
	if err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(tenantID, "suggest").Inc()
		return domain.Response{}, err
	}

	resp.Performance.TookMs = time.Since(start).Milliseconds()
	resp.Performance.Engine = "simple"

	g.cache.Set(ctx, key, resp, g.ttl.SuggestTTL, g.ttl.SuggestTTL)

	metrics.RequestsTotal.WithLabelValues(tenantID, "suggest").Inc()
	metrics.RequestLatency.WithLabelValues("suggest").Observe(time.Since(start).Seconds())

	if g.logger != nil {
		g.logger.Info("suggest dispatched",
			zap.String("tenant", tenantID),
			zap.String("fingerprint", key),
			zap.String("classification", string(domain.TypeSimple)),
			zap.Int64("elapsed_ms", resp.Performance.TookMs),
		)
	}

	return resp, nil
}

// validatePage lets an omitted page (Size nil) through untouched, so the
// caller can apply the default page size; it rejects a caller-supplied
// page.size == 0 outright rather than clamping it to a default, since
// clamping would silently change result cardinality in a way that breaks
// the cache-determinism guarantee callers rely on.
func validatePage(p domain.Page) error {
	if p.Size == nil {
		return nil
	}
	if *p.Size < 0 {
		return fmt.Errorf("%w: page.size must not be negative", domain.ErrBadRequest)
	}
	if *p.Size == 0 {
		return fmt.Errorf("%w: page.size must not be zero", domain.ErrBadRequest)
	}
	return nil
}

func subsetOf(req domain.Request) fingerprint.Subset {
	return fingerprint.Subset{
		Query:      req.Query,
		Filters:    req.Filters,
		Sort:       req.Sort,
		Projection: req.Projection,
		PageSize:   req.Page.EffectiveSize(domain.DefaultPageSize),
		PageCursor: req.Page.Cursor,
	}
}

func entityFilter(entity []string) map[string]domain.Filter {
	if len(entity) == 0 {
		return nil
	}
	return map[string]domain.Filter{"entity": {Kind: domain.FilterArray, Array: entity}}
}
