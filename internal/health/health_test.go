package health

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

type fakeAdapter struct {
	name    string
	healthy bool
}

func (f *fakeAdapter) Search(context.Context, domain.Request) (domain.Response, error) { return domain.Response{}, nil }
func (f *fakeAdapter) Suggest(context.Context, engine.SuggestRequest) (domain.Response, error) {
	return domain.Response{}, nil
}
func (f *fakeAdapter) FilterByIDs(context.Context, domain.Request, []string) (domain.Response, error) {
	return domain.Response{}, nil
}
func (f *fakeAdapter) Health(context.Context) bool { return f.healthy }
func (f *fakeAdapter) Name() string                { return f.name }

type fakeCacheProber struct{ up bool }

func (f fakeCacheProber) PingL2(context.Context) bool { return f.up }

func TestProbe_AllHealthy(t *testing.T) {
	p := New(&fakeAdapter{name: "simple", healthy: true}, &fakeAdapter{name: "complex", healthy: true}, fakeCacheProber{up: true}, nil)
	p.probe(context.Background())

	report := p.Last()
	if report.Status != Healthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	if !p.Ready() {
		t.Fatalf("expected ready")
	}
}

func TestProbe_OneDown_Degraded(t *testing.T) {
	p := New(&fakeAdapter{name: "simple", healthy: true}, &fakeAdapter{name: "complex", healthy: false}, fakeCacheProber{up: true}, nil)
	p.probe(context.Background())

	report := p.Last()
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if !p.Ready() {
		t.Fatalf("degraded should still be ready")
	}
}

func TestProbe_AllDown_Unhealthy(t *testing.T) {
	p := New(&fakeAdapter{name: "simple", healthy: false}, &fakeAdapter{name: "complex", healthy: false}, fakeCacheProber{up: false}, nil)
	p.probe(context.Background())

	report := p.Last()
	if report.Status != Unhealthy {
		t.Fatalf("expected unhealthy, got %s", report.Status)
	}
	if p.Ready() {
		t.Fatalf("unhealthy should not be ready")
	}
}

func TestNew_LastIsUnhealthyBeforeAnyProbe(t *testing.T) {
	p := New(&fakeAdapter{name: "simple", healthy: true}, &fakeAdapter{name: "complex", healthy: true}, nil, nil)
	if p.Last().Status != Unhealthy {
		t.Fatalf("expected unhealthy before first probe runs, got %s", p.Last().Status)
	}
}

func TestRun_ProbesImmediatelyAndStopsOnCancel(t *testing.T) {
	p := New(&fakeAdapter{name: "simple", healthy: true}, &fakeAdapter{name: "complex", healthy: true}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	if p.Last().Status != Healthy {
		t.Fatalf("expected immediate probe on Run, got %s", p.Last().Status)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after context cancellation")
	}
}
