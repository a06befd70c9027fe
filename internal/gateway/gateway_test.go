package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/searchgate/internal/cache"
	"github.com/kailas-cloud/searchgate/internal/classifier"
	"github.com/kailas-cloud/searchgate/internal/dispatcher"
	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/tenant"
)

type fakeAdapter struct {
	name       string
	searchResp domain.Response
	searchErr  error
	suggestResp domain.Response
	suggestErr  error
}

func (f *fakeAdapter) Search(context.Context, domain.Request) (domain.Response, error) {
	return f.searchResp, f.searchErr
}
func (f *fakeAdapter) Suggest(context.Context, engine.SuggestRequest) (domain.Response, error) {
	return f.suggestResp, f.suggestErr
}
func (f *fakeAdapter) FilterByIDs(context.Context, domain.Request, []string) (domain.Response, error) {
	return domain.Response{}, nil
}
func (f *fakeAdapter) Health(context.Context) bool { return true }
func (f *fakeAdapter) Name() string                { return f.name }

func newTestGateway(simple, complexE *fakeAdapter) *Gateway {
	c := classifier.New(classifier.DefaultConfig())
	router := tenant.NewRouter(tenant.NewDefaultLookup("shared-index"))
	ch := cache.New(cache.Config{L1MaxEntries: 64, L1DefaultTTL: time.Minute}, nil)
	d := dispatcher.New(dispatcher.Config{
		DefaultTimeout: 200 * time.Millisecond,
		MinTimeout:     10 * time.Millisecond,
		MaxTimeout:     time.Second,
		FallbackTimeout: 50 * time.Millisecond,
	}, simple, complexE, ch, nil)
	return New(c, router, ch, d, simple, DefaultTTLPolicy(), nil)
}

func TestSearch_ZeroPageSize_Rejected(t *testing.T) {
	g := newTestGateway(&fakeAdapter{name: "simple"}, &fakeAdapter{name: "complex"})
	zero := 0
	_, err := g.Search(context.Background(), domain.Request{Page: domain.Page{Size: &zero}}, "tenant-a", domain.Claims{})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad-request for page.size=0, got %v", err)
	}
}

func TestSearch_OmittedPage_DefaultsTo20(t *testing.T) {
	simple := &fakeAdapter{name: "simple", searchResp: domain.Response{
		Hits: []domain.Hit{{ID: "1"}}, Total: domain.Total{Value: 1, Relation: domain.RelationEq},
	}}
	g := newTestGateway(simple, &fakeAdapter{name: "complex"})

	req := domain.Request{
		Filters: map[string]domain.Filter{"entity": {Kind: domain.FilterArray, Array: []string{"customer"}}, "status": {Kind: domain.FilterArray, Array: []string{"active"}}},
	}
	resp, err := g.Search(context.Background(), req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error for omitted page: %v", err)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(resp.Hits))
	}
	if resp.Debug.Classification.Type != domain.TypeSimple {
		t.Fatalf("expected simple classification, got %v", resp.Debug.Classification.Type)
	}

	// An explicit page.size of 20 must hit the entry the omitted page wrote.
	twenty := 20
	explicit := req
	explicit.Page = domain.Page{Size: &twenty}
	second, err := g.Search(context.Background(), explicit, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error for page.size=20: %v", err)
	}
	if !second.Performance.Cached || second.Debug.CacheKey != resp.Debug.CacheKey {
		t.Fatalf("expected omitted page to share the page.size=20 cache entry, got cached=%v key %q vs %q",
			second.Performance.Cached, second.Debug.CacheKey, resp.Debug.CacheKey)
	}
}

func TestSearch_SuspendedRole_Forbidden(t *testing.T) {
	g := newTestGateway(&fakeAdapter{name: "simple"}, &fakeAdapter{name: "complex"})
	size := 10
	_, err := g.Search(context.Background(), domain.Request{Page: domain.Page{Size: &size}}, "tenant-a", domain.Claims{Roles: []string{"suspended"}})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSearch_CacheHitOnSecondCall(t *testing.T) {
	simple := &fakeAdapter{name: "simple", searchResp: domain.Response{
		Hits: []domain.Hit{{ID: "1"}}, Total: domain.Total{Value: 1, Relation: domain.RelationEq},
	}}
	g := newTestGateway(simple, &fakeAdapter{name: "complex"})
	size := 10
	req := domain.Request{Page: domain.Page{Size: &size}}

	first, err := g.Search(context.Background(), req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Performance.Cached {
		t.Fatalf("first call should not be cached")
	}

	second, err := g.Search(context.Background(), req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Performance.Cached {
		t.Fatalf("second call should be served from cache")
	}
	if len(second.Hits) != 1 || second.Hits[0].ID != "1" {
		t.Fatalf("cached hit content mismatch: %+v", second.Hits)
	}
}

func TestSearch_EngineError_Propagates(t *testing.T) {
	simple := &fakeAdapter{name: "simple", searchErr: errors.New("boom")}
	g := newTestGateway(simple, &fakeAdapter{name: "complex"})
	size := 10
	_, err := g.Search(context.Background(), domain.Request{Page: domain.Page{Size: &size}}, "tenant-a", domain.Claims{})
	if err == nil {
		t.Fatalf("expected engine error to propagate")
	}
}

func TestSuggest_PrefixValidation(t *testing.T) {
	g := newTestGateway(&fakeAdapter{name: "simple"}, &fakeAdapter{name: "complex"})
	_, err := g.Suggest(context.Background(), "", nil, 10, "tenant-a", domain.Claims{})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad-request for empty prefix, got %v", err)
	}
}

func TestSuggest_DefaultLimit(t *testing.T) {
	simple := &fakeAdapter{name: "simple", suggestResp: domain.Response{
		Hits: []domain.Hit{{ID: "shoe"}},
	}}
	g := newTestGateway(simple, &fakeAdapter{name: "complex"})
	resp, err := g.Suggest(context.Background(), "sho", nil, 0, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(resp.Hits))
	}

	// limit 0 defaults to 10, so an explicit limit of 10 hits the same entry.
	second, err := g.Suggest(context.Background(), "sho", nil, 10, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Performance.Cached {
		t.Fatalf("expected limit 0 to default to 10 and share the limit=10 cache entry")
	}
}

func TestExplain_NeverCallsEngines(t *testing.T) {
	simple := &fakeAdapter{name: "simple", searchErr: errors.New("engine must not be called")}
	complexE := &fakeAdapter{name: "complex", searchErr: errors.New("engine must not be called")}
	g := newTestGateway(simple, complexE)

	size := 10
	req := domain.Request{Query: "technology", Page: domain.Page{Size: &size}, Filters: map[string]domain.Filter{
		"status": {Kind: domain.FilterScalar, Scalar: "active"},
		"entity": {Kind: domain.FilterScalar, Scalar: "customer"},
	}}
	result, err := g.Explain(req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EstimatedCost.ExpectedLatencyMs <= 0 {
		t.Fatalf("expected positive expected_latency_ms")
	}
}

func TestExplain_OmittedPage_Succeeds(t *testing.T) {
	g := newTestGateway(&fakeAdapter{name: "simple"}, &fakeAdapter{name: "complex"})

	req := domain.Request{Query: "technology", Filters: map[string]domain.Filter{
		"status": {Kind: domain.FilterScalar, Scalar: "active"},
		"entity": {Kind: domain.FilterScalar, Scalar: "customer"},
	}}
	result, err := g.Explain(req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error for omitted page: %v", err)
	}
	if !result.CacheStrategy.Cacheable {
		t.Fatalf("expected cacheable=true")
	}
	if result.EstimatedCost.ExpectedLatencyMs <= 0 {
		t.Fatalf("expected positive expected_latency_ms")
	}
}

func TestExplain_KeyMatchesSearchFingerprint(t *testing.T) {
	g := newTestGateway(&fakeAdapter{name: "simple"}, &fakeAdapter{name: "complex"})
	size := 10
	req := domain.Request{Query: "technology", Page: domain.Page{Size: &size}}

	explainResult, err := g.Explain(req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	simple := &fakeAdapter{name: "simple", searchResp: domain.Response{Total: domain.Total{Relation: domain.RelationEq}}}
	g2 := newTestGateway(simple, &fakeAdapter{name: "complex"})
	searchResp, err := g2.Search(context.Background(), req, "tenant-a", domain.Claims{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if explainResult.CacheStrategy.Key != searchResp.Debug.CacheKey {
		t.Fatalf("explain key %q != search key %q", explainResult.CacheStrategy.Key, searchResp.Debug.CacheKey)
	}
}
