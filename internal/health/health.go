// Package health aggregates periodic liveness probes of the two engine
// adapters and the optional L2 cache tier into a single report that the
// /health and /ready handlers read without blocking on a live probe per
// request.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Status is the aggregated health record's overall verdict.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is one component's individual probe outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report is the most recent aggregated probe result.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// CacheProber lets the L2 tier participate in the same probe loop as the
// engine adapters, without internal/health depending on internal/cache
// directly; only the one method it needs.
type CacheProber interface {
	PingL2(ctx context.Context) bool
}

// Prober runs a background ticker that probes every registered component
// and caches the aggregated result.
type Prober struct {
	simple  engine.Adapter
	complex engine.Adapter
	l2      CacheProber
	logger  *zap.Logger

	mu   sync.RWMutex
	last Report
}

func New(simple, complexEngine engine.Adapter, l2 CacheProber, logger *zap.Logger) *Prober {
	return &Prober{
		simple:  simple,
		complex: complexEngine,
		l2:      l2,
		logger:  logger,
		last:    Report{Status: Unhealthy, Checks: map[string]CheckResult{}},
	}
}

// Run probes immediately, then on every tick, until ctx is cancelled.
func (p *Prober) Run(ctx context.Context, interval time.Duration) {
	p.probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

// Probe runs a single probe cycle synchronously and updates the cached
// report. Exposed so callers can force a fresh report; main.go uses it to
// populate an initial report before Run's background loop takes over.
func (p *Prober) Probe(ctx context.Context) {
	p.probe(ctx)
}

func (p *Prober) probe(ctx context.Context) {
	correlationID := uuid.NewString()
	checks := make(map[string]CheckResult, 3)

	checks["simple_engine"] = resultOf(p.simple.Health(ctx))
	checks["complex_engine"] = resultOf(p.complex.Health(ctx))
	if p.l2 != nil {
		checks["l2_cache"] = resultOf(p.l2.PingL2(ctx))
	}

	status := Healthy
	failures := 0
	for _, v := range checks {
		if v == CheckError {
			failures++
		}
	}
	switch {
	case failures == 0:
		status = Healthy
	case failures < len(checks):
		status = Degraded
	default:
		status = Unhealthy
	}

	report := Report{Status: status, Checks: checks}

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Debug("health probe completed",
			zap.String("correlation_id", correlationID),
			zap.String("status", string(status)),
		)
	}
}

func resultOf(healthy bool) CheckResult {
	if healthy {
		return CheckOK
	}
	return CheckError
}

// Last returns the most recently cached probe report.
func (p *Prober) Last() Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Ready reports whether the service should accept traffic: healthy or
// degraded, but not unhealthy.
func (p *Prober) Ready() bool {
	status := p.Last().Status
	return status == Healthy || status == Degraded
}
