// Package fingerprint computes the deterministic cache identity of a
// request: the same query, filters, sort, projection and page descriptor
// always hash to the same digest regardless of map iteration order or
// request field ordering.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// salt widens the digest to 128 bits by hashing the canonical bytes twice,
// once bare and once behind this prefix, rather than reaching for a
// cryptographic hash the fingerprint has no need for.
var salt = []byte("searchgate-fingerprint-v1\x00")

// Subset is the hashed portion of a request. TimeoutMs and Strict are
// deliberately excluded: they affect execution, not result identity.
type Subset struct {
	Query      string
	Filters    map[string]domain.Filter
	Sort       []domain.SortKey
	Projection []string
	PageSize   int
	PageCursor string
}

// Search returns the search:<tenant>:<hex> cache key for a request subset.
func Search(tenant string, s Subset) string {
	return buildKey("search", tenant, s)
}

// Suggest returns the suggest:<tenant>:<hex> cache key for a suggest
// request, modeled as a Subset whose Query field carries the prefix.
func Suggest(tenant string, s Subset) string {
	return buildKey("suggest", tenant, s)
}

func buildKey(namespace, tenant string, s Subset) string {
	canon := canonicalize(s)

	h1 := xxhash.Sum64(canon)
	salted := make([]byte, 0, len(salt)+len(canon))
	salted = append(salted, salt...)
	salted = append(salted, canon...)
	h2 := xxhash.Sum64(salted)

	var digest [16]byte
	binary.BigEndian.PutUint64(digest[0:8], h1)
	binary.BigEndian.PutUint64(digest[8:16], h2)

	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(tenant)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(digest[:]))
	return b.String()
}

// canonicalize serializes a Subset into a deterministic byte form: map keys
// sorted lexicographically, arrays preserving caller order, and numbers
// normalized to a single decimal so that 1 and 1.0 hash identically.
func canonicalize(s Subset) []byte {
	var b strings.Builder

	b.WriteString("q=")
	b.WriteString(s.Query)
	b.WriteString("\x1e")

	b.WriteString("filters=")
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		writeFilter(&b, s.Filters[k])
		b.WriteByte(';')
	}
	b.WriteString("\x1e")

	b.WriteString("sort=")
	for _, sk := range s.Sort {
		b.WriteString(sk.Field)
		b.WriteByte(':')
		b.WriteString(sk.Order)
		b.WriteByte(';')
	}
	b.WriteString("\x1e")

	b.WriteString("proj=")
	for _, p := range s.Projection {
		b.WriteString(p)
		b.WriteByte(';')
	}
	b.WriteString("\x1e")

	b.WriteString("page=")
	b.WriteString(strconv.Itoa(s.PageSize))
	b.WriteByte(':')
	b.WriteString(s.PageCursor)

	return []byte(b.String())
}

func writeFilter(b *strings.Builder, f domain.Filter) {
	switch f.Kind {
	case domain.FilterScalar:
		b.WriteString("s:")
		b.WriteString(f.Scalar)
	case domain.FilterArray:
		b.WriteString("a:")
		b.WriteString(strings.Join(f.Array, ","))
	case domain.FilterRange:
		b.WriteString("r:")
		writeBound(b, "gte", f.Range.GTE)
		writeBound(b, "lte", f.Range.LTE)
		writeBound(b, "gt", f.Range.GT)
		writeBound(b, "lt", f.Range.LT)
	}
}

func writeBound(b *strings.Builder, label string, v *float64) {
	if v == nil {
		return
	}
	b.WriteString(label)
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(*v, 'f', 1, 64))
	b.WriteByte(',')
}
