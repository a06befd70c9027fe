package fingerprint

import (
	"testing"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

func TestSearch_PermutationInvariant(t *testing.T) {
	gte := 10.0
	a := Subset{
		Query: "wireless headphones",
		Filters: map[string]domain.Filter{
			"category": {Kind: domain.FilterScalar, Scalar: "electronics"},
			"price":    {Kind: domain.FilterRange, Range: domain.RangeBounds{GTE: &gte}},
		},
		Sort:     []domain.SortKey{{Field: "price", Order: "asc"}},
		PageSize: 20,
	}

	// Same content, map built in a different insertion order. Go maps
	// don't guarantee iteration order, so this alone would catch a
	// non-deterministic implementation across repeated runs.
	b := Subset{
		Query: "wireless headphones",
		Filters: map[string]domain.Filter{
			"price":    {Kind: domain.FilterRange, Range: domain.RangeBounds{GTE: &gte}},
			"category": {Kind: domain.FilterScalar, Scalar: "electronics"},
		},
		Sort:     []domain.SortKey{{Field: "price", Order: "asc"}},
		PageSize: 20,
	}

	if got, want := Search("tenant-a", a), Search("tenant-a", b); got != want {
		t.Fatalf("fingerprints differ under key permutation: %q != %q", got, want)
	}
}

func TestSearch_TenantPrefixed(t *testing.T) {
	key := Search("tenant-a", Subset{Query: "x"})
	if key[:len("search:tenant-a:")] != "search:tenant-a:" {
		t.Fatalf("key missing tenant prefix: %q", key)
	}
}

func TestSearch_ArrayOrderMatters(t *testing.T) {
	a := Subset{Filters: map[string]domain.Filter{
		"tags": {Kind: domain.FilterArray, Array: []string{"a", "b"}},
	}}
	b := Subset{Filters: map[string]domain.Filter{
		"tags": {Kind: domain.FilterArray, Array: []string{"b", "a"}},
	}}

	if Search("t", a) == Search("t", b) {
		t.Fatalf("array order should be preserved, but fingerprints matched")
	}
}

func TestSearch_DistinctTenantsDistinctKeys(t *testing.T) {
	s := Subset{Query: "same query"}
	if Search("tenant-a", s) == Search("tenant-b", s) {
		t.Fatalf("fingerprints for different tenants must differ")
	}
}

func TestSuggest_UsesDistinctNamespace(t *testing.T) {
	s := Subset{Query: "abc"}
	if Search("t", s) == Suggest("t", s) {
		t.Fatalf("search and suggest fingerprints must not collide")
	}
}
