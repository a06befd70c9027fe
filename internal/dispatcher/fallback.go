package dispatcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/metrics"
)

// fallback runs the deadline-exceeded chain: a usable cached response,
// then a degraded plan (no free text, small page, tight timeout), then an
// empty result. It never fails: the last step always returns something.
func (d *Dispatcher) fallback(ctx context.Context, fingerprint string, req domain.Request, start time.Time) domain.Response {
	if start.IsZero() {
		start = time.Now()
	}

	if d.logger != nil {
		d.logger.Warn("dispatch deadline exceeded, falling back",
			zap.String("fingerprint", fingerprint),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
	}

	if cached := d.cache.Get(ctx, fingerprint); cached.Hit {
		metrics.DispatchFallbackTotal.WithLabelValues("stale-cache").Inc()
		resp := cached.Response
		resp.Performance.Partial = true
		resp.Performance.Cached = true
		resp.Performance.TookMs = time.Since(start).Milliseconds()
		resp.Total.Relation = domain.RelationGTE
		return resp
	}

	if degraded, ok := d.degradedPlan(ctx, req); ok {
		metrics.DispatchFallbackTotal.WithLabelValues("degraded-plan").Inc()
		degraded.Performance.Partial = true
		degraded.Performance.TookMs = time.Since(start).Milliseconds()
		degraded.Total.Relation = domain.RelationGTE
		return degraded
	}

	metrics.DispatchFallbackTotal.WithLabelValues("empty").Inc()
	return domain.Response{
		Hits:  []domain.Hit{},
		Total: domain.Total{Value: 0, Relation: domain.RelationGTE},
		Page:  domain.ResponsePage{Size: req.Page.EffectiveSize(domain.DefaultPageSize)},
		Performance: domain.Performance{
			TookMs:  time.Since(start).Milliseconds(),
			Engine:  "fallback",
			Partial: true,
		},
	}
}

func (d *Dispatcher) degradedPlan(ctx context.Context, req domain.Request) (domain.Response, bool) {
	degraded := req
	degraded.Query = ""
	size := degraded.Page.EffectiveSize(domain.DefaultPageSize)
	if size <= 0 || size > 10 {
		size = 10
	}
	degraded.Page.Size = &size

	fallbackTimeout := d.cfg.FallbackTimeout
	if fallbackTimeout <= 0 {
		fallbackTimeout = 200 * time.Millisecond
	}

	dctx, cancel := context.WithTimeout(ctx, fallbackTimeout)
	defer cancel()

	resp, err := d.simple.Search(dctx, degraded)
	if err != nil {
		return domain.Response{}, false
	}
	resp.Performance.Engine = "simple"
	return resp, true
}
