package dispatcher

import (
	"context"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// executeHybrid overfetches from the complex engine, then, only when the
// request carries an exact-match filter on a field configured for the
// simple engine's index, intersects with the simple engine's filter_by_ids
// result, preserving the complex engine's order. Both calls run against the
// same deadline-scoped context; when no exact filter applies, the complex
// result is used directly and the simple engine is never called.
func (d *Dispatcher) executeHybrid(ctx context.Context, req domain.Request) (domain.Response, error) {
	pageSize := req.Page.EffectiveSize(domain.DefaultPageSize)

	overfetchSize := pageSize * d.hybridOverfetch()
	overfetch := req
	overfetch.Page.Size = &overfetchSize

	complexResp, err := d.complex.Search(ctx, overfetch)
	if err != nil {
		return domain.Response{}, err
	}

	if !d.hasExactFilter(req) {
		return truncate(complexResp, pageSize), nil
	}

	ids := make([]string, 0, len(complexResp.Hits))
	for _, h := range complexResp.Hits {
		ids = append(ids, h.ID)
	}

	simpleResp, err := d.simple.FilterByIDs(ctx, req, ids)
	if err != nil {
		return domain.Response{}, err
	}

	return intersectPreservingOrder(complexResp, simpleResp, pageSize), nil
}

func (d *Dispatcher) hybridOverfetch() int {
	if d.cfg.HybridOverfetch <= 0 {
		return 3
	}
	return d.cfg.HybridOverfetch
}

func (d *Dispatcher) hasExactFilter(req domain.Request) bool {
	for field, f := range req.Filters {
		if _, ok := d.cfg.ExactFilterFields[field]; !ok {
			continue
		}
		if f.Kind == domain.FilterScalar || f.Kind == domain.FilterArray {
			return true
		}
	}
	return false
}

func truncate(resp domain.Response, size int) domain.Response {
	if size <= 0 || size >= len(resp.Hits) {
		return resp
	}
	resp.Hits = resp.Hits[:size]
	resp.Page.Size = size
	return resp
}

// intersectPreservingOrder keeps the complex engine's ordering, restricted
// to ids also present in the simple engine's exact-filter result, then
// truncates to the requested page size. The complex engine's own order
// already reflects its relevance score (or an explicit user sort), so no
// further reordering is applied here.
func intersectPreservingOrder(complexResp, simpleResp domain.Response, size int) domain.Response {
	allowed := make(map[string]struct{}, len(simpleResp.Hits))
	for _, h := range simpleResp.Hits {
		allowed[h.ID] = struct{}{}
	}

	kept := make([]domain.Hit, 0, len(complexResp.Hits))
	for _, h := range complexResp.Hits {
		if _, ok := allowed[h.ID]; ok {
			kept = append(kept, h)
		}
	}

	total := len(kept)

	if size > 0 && len(kept) > size {
		kept = kept[:size]
	}

	return domain.Response{
		Hits:  kept,
		Total: domain.Total{Value: total, Relation: domain.RelationEq},
		Page:  domain.ResponsePage{Size: size},
	}
}
