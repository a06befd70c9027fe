// Package dispatcher executes a classified plan against the backing
// engines under a wall-clock deadline, merges the hybrid plan's two calls,
// coalesces concurrent misses for the same fingerprint, and falls back
// gracefully when the deadline fires. A dispatch never throws on timeout:
// it always produces some response, marked partial.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/cache"
	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Config tunes deadline clamping and the hybrid plan's overfetch factor.
type Config struct {
	DefaultTimeout    time.Duration
	MinTimeout        time.Duration
	MaxTimeout        time.Duration
	HybridOverfetch   int
	FallbackTimeout   time.Duration
	ExactFilterFields map[string]struct{}
}

// Dispatcher owns the two engine adapters and coordinates plan execution.
type Dispatcher struct {
	cfg     Config
	simple  engine.Adapter
	complex engine.Adapter
	cache   *cache.Cache
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	resp domain.Response
	err  error
}

func New(cfg Config, simpleEngine, complexEngine engine.Adapter, c *cache.Cache, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		simple:   simpleEngine,
		complex:  complexEngine,
		cache:    c,
		logger:   logger,
		inflight: make(map[string]*call),
	}
}

func (d *Dispatcher) clampTimeout(requestedMs int) time.Duration {
	t := time.Duration(requestedMs) * time.Millisecond
	if requestedMs <= 0 {
		t = d.cfg.DefaultTimeout
	}
	if t < d.cfg.MinTimeout {
		t = d.cfg.MinTimeout
	}
	if t > d.cfg.MaxTimeout {
		t = d.cfg.MaxTimeout
	}
	return t
}

// Dispatch executes the classified plan. Timeouts never surface as an
// error; they produce a fallback response with Partial set. Non-timeout
// engine failures are returned as an error for the gateway to map to
// engine-error.
func (d *Dispatcher) Dispatch(ctx context.Context, fingerprint string, req domain.Request, classification domain.Classification) (domain.Response, error) {
	timeout := d.clampTimeout(req.Options.TimeoutMs)
	start := time.Now()

	leader, joined := d.join(fingerprint)
	if joined {
		return d.awaitLeader(ctx, leader, timeout, fingerprint, req, start)
	}

	resp, err := d.execute(ctx, timeout, fingerprint, req, classification, start)

	d.mu.Lock()
	leader.resp, leader.err = resp, err
	delete(d.inflight, fingerprint)
	d.mu.Unlock()
	close(leader.done)

	return resp, err
}

func (d *Dispatcher) join(fingerprint string) (*call, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.inflight[fingerprint]; ok {
		return c, true
	}
	c := &call{done: make(chan struct{})}
	d.inflight[fingerprint] = c
	return c, false
}

// awaitLeader lets a coalesced waiter ride the leader's result but never
// waits past its own deadline: a slow leader does not delay a waiter's own
// fallback.
func (d *Dispatcher) awaitLeader(ctx context.Context, leader *call, timeout time.Duration, fingerprint string, req domain.Request, start time.Time) (domain.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-leader.done:
		return leader.resp, leader.err
	case <-timer.C:
		return d.fallback(ctx, fingerprint, req, start), nil
	case <-ctx.Done():
		return d.fallback(ctx, fingerprint, req, start), nil
	}
}

func (d *Dispatcher) execute(ctx context.Context, timeout time.Duration, fingerprint string, req domain.Request, classification domain.Classification, start time.Time) (domain.Response, error) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		resp domain.Response
		err  error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		resp, err := d.executePlan(dctx, req, classification)
		resultCh <- outcome{resp: resp, err: err}
	}()

	select {
	case o := <-resultCh:
		if o.err != nil {
			return domain.Response{}, o.err
		}
		o.resp.Performance.TookMs = time.Since(start).Milliseconds()
		if o.resp.Performance.Engine == "" {
			o.resp.Performance.Engine = string(classification.Type)
		}
		return o.resp, nil
	case <-dctx.Done():
		return d.fallback(ctx, fingerprint, req, start), nil
	}
}

func (d *Dispatcher) executePlan(ctx context.Context, req domain.Request, classification domain.Classification) (domain.Response, error) {
	switch classification.Type {
	case domain.TypeSimple:
		return d.simple.Search(ctx, req)
	case domain.TypeComplex:
		return d.complex.Search(ctx, req)
	case domain.TypeHybrid:
		return d.executeHybrid(ctx, req)
	default:
		return d.simple.Search(ctx, req)
	}
}
