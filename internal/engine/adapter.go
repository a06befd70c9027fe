// Package engine defines the capability set every backing search engine
// implements. The dispatcher is polymorphic over this interface only; it
// never branches on which concrete engine it is talking to.
package engine

import (
	"context"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// Adapter is the shared contract for both the simple (key/prefix) and
// complex (full-text/faceted) backing engines.
type Adapter interface {
	Search(ctx context.Context, req domain.Request) (domain.Response, error)
	Suggest(ctx context.Context, req SuggestRequest) (domain.Response, error)
	FilterByIDs(ctx context.Context, req domain.Request, ids []string) (domain.Response, error)
	Health(ctx context.Context) bool
	Name() string
}

// SuggestRequest is the typeahead request shape. Only the simple adapter
// implements it meaningfully; the complex adapter returns
// domain.ErrNotImplemented.
type SuggestRequest struct {
	TenantID string
	Prefix   string
	Entity   []string
	Limit    int
}
