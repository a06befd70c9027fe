// Package complex implements the full-text/faceted backing engine over
// OpenSearch: multi-field boosted text queries, structured filters, sort,
// highlighting, and facet/date-histogram/range aggregations.
package complex

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Config configures the OpenSearch connection and the index's facet
// surface.
type Config struct {
	Addresses              []string
	Username               string
	Password               string
	InsecureSkipTLS        bool
	Index                  string
	FacetFields            []string
	DateHistogramField     string
	NumericRangeField      string
	HighlightFragmentSize  int
	HighlightFragmentCount int
	RequestTimeoutMs       int
}

// Adapter implements engine.Adapter against an OpenSearch cluster.
type Adapter struct {
	client  *opensearchapi.Client
	index   string
	cfg     Config
	timeout time.Duration
}

func New(cfg Config) (*Adapter, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("complex engine: addresses is required")
	}

	transport := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipTLS}}
	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:  cfg.Addresses,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Transport:  transport,
			MaxRetries: 3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("complex engine: create client: %w", err)
	}

	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	return &Adapter{client: client, index: cfg.Index, cfg: cfg, timeout: timeout}, nil
}

func (a *Adapter) Name() string { return "complex" }

func (a *Adapter) Health(ctx context.Context) bool {
	res, err := a.client.Cluster.Health(ctx, &opensearchapi.ClusterHealthReq{})
	return err == nil && res.Status != ""
}

// Search executes a full-text/faceted query. Free text picks phrase,
// prefix, fuzzy, or cross-field matching based on the query's shape;
// structured filters, sort, highlighting and aggregations are attached
// when requested.
func (a *Adapter) Search(ctx context.Context, req domain.Request) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	from, cursorSize, err := decodeCursor(req.Page.Cursor)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: undecodable cursor", domain.ErrBadRequest)
	}

	size := req.Page.EffectiveSize(0)
	if size <= 0 {
		size = cursorSize
	}
	if size <= 0 {
		size = domain.DefaultPageSize
	}

	body, err := a.buildSearchBody(req, from, size)
	if err != nil {
		return domain.Response{}, err
	}

	res, err := a.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{a.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", domain.ErrEngineError, err)
	}

	return a.toResponse(res, from, size)
}

// FilterByIDs fetches the given ids from the index with an ids query. The
// dispatcher's hybrid plan does not call it; that plan calls FilterByIDs
// on the simple engine.
func (a *Adapter) FilterByIDs(ctx context.Context, req domain.Request, ids []string) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"size":  len(ids),
		"query": map[string]any{"ids": map[string]any{"values": ids}},
	})
	if err != nil {
		return domain.Response{}, err
	}

	res, err := a.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{a.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", domain.ErrEngineError, err)
	}

	return a.toResponse(res, 0, len(ids))
}

// Suggest is not implemented by the complex engine. Typeahead is always
// routed to the simple engine.
func (a *Adapter) Suggest(context.Context, engine.SuggestRequest) (domain.Response, error) {
	return domain.Response{}, fmt.Errorf("%w: complex engine does not implement suggest", domain.ErrNotImplemented)
}

type rawSearchResponse struct {
	Hits struct {
		Total struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			ID        string               `json:"_id"`
			Score     float64              `json:"_score"`
			Source    map[string]any       `json:"_source"`
			Highlight map[string][]string  `json:"highlight,omitempty"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
}

func (a *Adapter) toResponse(res *opensearchapi.SearchResp, from, size int) (domain.Response, error) {
	inspect := res.Inspect()
	defer inspect.Response.Body.Close()

	var raw rawSearchResponse
	if err := json.NewDecoder(inspect.Response.Body).Decode(&raw); err != nil {
		return domain.Response{}, fmt.Errorf("%w: decode search response: %v", domain.ErrEngineError, err)
	}

	hits := make([]domain.Hit, 0, len(raw.Hits.Hits))
	for _, h := range raw.Hits.Hits {
		score := h.Score
		hits = append(hits, domain.Hit{
			ID:        h.ID,
			Source:    h.Source,
			Score:     &score,
			Highlight: h.Highlight,
		})
	}

	relation := domain.RelationEq
	if raw.Hits.Total.Relation == "gte" {
		relation = domain.RelationGTE
	}

	nextCursor := ""
	hasMore := from+len(hits) < raw.Hits.Total.Value
	if hasMore {
		nextCursor = encodeCursor(from+size, size)
	}

	return domain.Response{
		Hits:        hits,
		Total:       domain.Total{Value: raw.Hits.Total.Value, Relation: relation},
		Page:        domain.ResponsePage{Size: size, Cursor: nextCursor, HasMore: hasMore},
		Facets:      a.parseFacets(raw.Aggregations),
		Performance: domain.Performance{Engine: "complex"},
	}, nil
}

func (a *Adapter) parseFacets(aggs map[string]json.RawMessage) map[string]domain.Facet {
	if len(aggs) == 0 {
		return nil
	}

	facets := make(map[string]domain.Facet, len(aggs))
	for name, raw := range aggs {
		var parsed struct {
			Buckets []struct {
				Key      any    `json:"key"`
				KeyAsStr string `json:"key_as_string"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}

		buckets := make([]domain.FacetBucket, 0, len(parsed.Buckets))
		for _, b := range parsed.Buckets {
			key := b.KeyAsStr
			if key == "" {
				key = fmt.Sprintf("%v", b.Key)
			}
			buckets = append(buckets, domain.FacetBucket{Key: key, Count: b.DocCount})
		}
		facets[name] = domain.Facet{Buckets: buckets}
	}
	return facets
}
