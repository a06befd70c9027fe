package complex

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

func (a *Adapter) buildSearchBody(req domain.Request, from, size int) ([]byte, error) {
	body := map[string]any{"from": from, "size": size}

	var must []map[string]any
	if q := strings.TrimSpace(req.Query); q != "" {
		must = append(must, buildTextQuery(q))
	}

	filterClauses := make([]map[string]any, 0, len(req.Filters))
	for field, f := range req.Filters {
		clause, err := buildFilterClause(field, f)
		if err != nil {
			return nil, err
		}
		filterClauses = append(filterClauses, clause)
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}
	if len(boolQuery) == 0 {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	} else {
		body["query"] = map[string]any{"bool": boolQuery}
	}

	if len(req.Sort) > 0 {
		sortClauses := make([]map[string]any, 0, len(req.Sort))
		for _, s := range req.Sort {
			order := "asc"
			if strings.EqualFold(s.Order, "desc") {
				order = "desc"
			}
			sortClauses = append(sortClauses, map[string]any{s.Field: map[string]any{"order": order}})
		}
		body["sort"] = sortClauses
	}

	if req.Options.Highlight {
		body["highlight"] = a.highlightClause()
	}

	if aggs := a.aggregationsClause(); len(aggs) > 0 {
		body["aggs"] = aggs
	}

	return json.Marshal(body)
}

// buildTextQuery picks a multi_match mode from the shape of the query
// string: a quoted phrase, a trailing-* prefix, a ~ fuzzy marker, or a
// plain cross-field match.
func buildTextQuery(q string) map[string]any {
	fields := []string{"title^3", "body", "denormalized^2", "keywords^2"}

	switch {
	case strings.HasPrefix(q, "\"") && strings.HasSuffix(q, "\"") && len(q) > 1:
		return map[string]any{"multi_match": map[string]any{
			"query": strings.Trim(q, "\""), "type": "phrase", "fields": fields,
		}}
	case strings.HasSuffix(q, "*"):
		return map[string]any{"multi_match": map[string]any{
			"query": strings.TrimSuffix(q, "*"), "type": "phrase_prefix", "fields": fields,
		}}
	case strings.Contains(q, "~"):
		return map[string]any{"multi_match": map[string]any{
			"query": strings.ReplaceAll(q, "~", ""), "fuzziness": "AUTO", "fields": fields,
		}}
	default:
		return map[string]any{"multi_match": map[string]any{
			"query": q, "type": "cross_fields", "fields": fields,
		}}
	}
}

func buildFilterClause(field string, f domain.Filter) (map[string]any, error) {
	switch f.Kind {
	case domain.FilterScalar:
		return map[string]any{"term": map[string]any{field: f.Scalar}}, nil
	case domain.FilterArray:
		return map[string]any{"terms": map[string]any{field: f.Array}}, nil
	case domain.FilterRange:
		rangeBody := map[string]any{}
		if f.Range.GTE != nil {
			rangeBody["gte"] = *f.Range.GTE
		}
		if f.Range.LTE != nil {
			rangeBody["lte"] = *f.Range.LTE
		}
		if f.Range.GT != nil {
			rangeBody["gt"] = *f.Range.GT
		}
		if f.Range.LT != nil {
			rangeBody["lt"] = *f.Range.LT
		}
		return map[string]any{"range": map[string]any{field: rangeBody}}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized filter kind for field %q", domain.ErrBadRequest, field)
	}
}

func (a *Adapter) highlightClause() map[string]any {
	fields := map[string]any{}
	for _, f := range []string{"title", "body", "keywords"} {
		fields[f] = map[string]any{}
	}
	fragmentSize := a.cfg.HighlightFragmentSize
	if fragmentSize <= 0 {
		fragmentSize = 150
	}
	fragmentCount := a.cfg.HighlightFragmentCount
	if fragmentCount <= 0 {
		fragmentCount = 3
	}
	return map[string]any{
		"fragment_size":       fragmentSize,
		"number_of_fragments": fragmentCount,
		"fields":              fields,
	}
}

func (a *Adapter) aggregationsClause() map[string]any {
	aggs := map[string]any{}
	for _, f := range a.cfg.FacetFields {
		aggs[f] = map[string]any{"terms": map[string]any{"field": f, "size": 10}}
	}
	if a.cfg.DateHistogramField != "" {
		aggs["by_date"] = map[string]any{
			"date_histogram": map[string]any{"field": a.cfg.DateHistogramField, "calendar_interval": "month"},
		}
	}
	if a.cfg.NumericRangeField != "" {
		aggs["by_amount"] = map[string]any{
			"range": map[string]any{
				"field": a.cfg.NumericRangeField,
				"ranges": []map[string]any{
					{"to": 100}, {"from": 100, "to": 1000}, {"from": 1000},
				},
			},
		}
	}
	return aggs
}
