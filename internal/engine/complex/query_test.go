package complex

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

func TestBuildFilterClause_Scalar(t *testing.T) {
	clause, err := buildFilterClause("category", domain.Filter{Kind: domain.FilterScalar, Scalar: "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := clause["term"].(map[string]any)
	if !ok || term["category"] != "shoes" {
		t.Errorf("got %+v", clause)
	}
}

func TestBuildFilterClause_Array(t *testing.T) {
	clause, err := buildFilterClause("category", domain.Filter{Kind: domain.FilterArray, Array: []string{"shoes", "boots"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	terms, ok := clause["terms"].(map[string]any)
	if !ok {
		t.Fatalf("got %+v", clause)
	}
	values, ok := terms["category"].([]string)
	if !ok || len(values) != 2 {
		t.Errorf("got %+v", terms["category"])
	}
}

func TestBuildFilterClause_Range(t *testing.T) {
	gte, lte := 10.0, 100.0
	clause, err := buildFilterClause("price", domain.Filter{
		Kind:  domain.FilterRange,
		Range: domain.RangeBounds{GTE: &gte, LTE: &lte},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng, ok := clause["range"].(map[string]any)
	if !ok {
		t.Fatalf("got %+v", clause)
	}
	bounds, ok := rng["price"].(map[string]any)
	if !ok || bounds["gte"] != gte || bounds["lte"] != lte {
		t.Errorf("got %+v", bounds)
	}
}

func TestBuildFilterClause_UnrecognizedKind(t *testing.T) {
	// FilterKind's zero value is FilterScalar, so use a kind outside the enum.
	if _, err := buildFilterClause("category", domain.Filter{Kind: domain.FilterKind(99)}); err == nil {
		t.Fatal("expected error for unrecognized filter kind")
	}
}

func TestBuildTextQuery_QuotedPhrase(t *testing.T) {
	q := buildTextQuery(`"running shoes"`)
	mm, ok := q["multi_match"].(map[string]any)
	if !ok || mm["type"] != "phrase" || mm["query"] != "running shoes" {
		t.Errorf("got %+v", q)
	}
}

func TestBuildTextQuery_PrefixWildcard(t *testing.T) {
	q := buildTextQuery("run*")
	mm := q["multi_match"].(map[string]any)
	if mm["type"] != "phrase_prefix" || mm["query"] != "run" {
		t.Errorf("got %+v", mm)
	}
}

func TestBuildTextQuery_Fuzzy(t *testing.T) {
	q := buildTextQuery("running~")
	mm := q["multi_match"].(map[string]any)
	if mm["fuzziness"] != "AUTO" || mm["query"] != "running" {
		t.Errorf("got %+v", mm)
	}
}

func TestBuildTextQuery_Plain(t *testing.T) {
	q := buildTextQuery("running shoes")
	mm := q["multi_match"].(map[string]any)
	if mm["type"] != "cross_fields" || mm["query"] != "running shoes" {
		t.Errorf("got %+v", mm)
	}
}

func TestBuildSearchBody_MatchAllWithoutQueryOrFilters(t *testing.T) {
	a := &Adapter{cfg: Config{}}
	raw, err := a.buildSearchBody(domain.Request{}, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	query, ok := body["query"].(map[string]any)
	if !ok {
		t.Fatalf("got %+v", body)
	}
	if _, ok := query["match_all"]; !ok {
		t.Errorf("expected match_all query, got %+v", query)
	}
}

func TestBuildSearchBody_QueryAndFilterProduceBoolClause(t *testing.T) {
	a := &Adapter{cfg: Config{}}
	req := domain.Request{
		Query:   "running shoes",
		Filters: map[string]domain.Filter{"category": {Kind: domain.FilterScalar, Scalar: "shoes"}},
	}
	raw, err := a.buildSearchBody(req, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	query := body["query"].(map[string]any)
	boolQuery, ok := query["bool"].(map[string]any)
	if !ok {
		t.Fatalf("expected bool query, got %+v", query)
	}
	if _, ok := boolQuery["must"]; !ok {
		t.Errorf("expected must clause for free text, got %+v", boolQuery)
	}
	if _, ok := boolQuery["filter"]; !ok {
		t.Errorf("expected filter clause, got %+v", boolQuery)
	}
}

func TestBuildSearchBody_SortAndHighlight(t *testing.T) {
	a := &Adapter{cfg: Config{HighlightFragmentSize: 200, HighlightFragmentCount: 2}}
	req := domain.Request{
		Sort:    []domain.SortKey{{Field: "price", Order: "desc"}},
		Options: domain.Options{Highlight: true},
	}
	raw, err := a.buildSearchBody(req, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["sort"]; !ok {
		t.Errorf("expected sort clause, got %+v", body)
	}
	highlight, ok := body["highlight"].(map[string]any)
	if !ok || highlight["fragment_size"] != float64(200) {
		t.Errorf("expected highlight clause with fragment_size=200, got %+v", body["highlight"])
	}
}

func TestAggregationsClause_FacetsDateHistogramAndRange(t *testing.T) {
	a := &Adapter{cfg: Config{
		FacetFields:        []string{"brand", "color"},
		DateHistogramField: "created_at",
		NumericRangeField:  "price",
	}}
	aggs := a.aggregationsClause()

	if _, ok := aggs["brand"]; !ok {
		t.Errorf("expected facet aggregation for brand, got %+v", aggs)
	}
	if _, ok := aggs["color"]; !ok {
		t.Errorf("expected facet aggregation for color, got %+v", aggs)
	}
	if _, ok := aggs["by_date"]; !ok {
		t.Errorf("expected date histogram aggregation, got %+v", aggs)
	}
	if _, ok := aggs["by_amount"]; !ok {
		t.Errorf("expected numeric range aggregation, got %+v", aggs)
	}
}

func TestAggregationsClause_EmptyWhenUnconfigured(t *testing.T) {
	a := &Adapter{cfg: Config{}}
	aggs := a.aggregationsClause()
	if len(aggs) != 0 {
		t.Errorf("expected no aggregations, got %+v", aggs)
	}
}
