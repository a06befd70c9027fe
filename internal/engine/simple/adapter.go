// Package simple implements the fast key/prefix backing engine over Redis
// via rueidis: index reads selected by tenant and entity, small result
// sets, and prefix suggest. It intentionally does not rank or highlight;
// that is the complex engine's job.
package simple

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchgate/internal/domain"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Config configures the simple engine's Redis connection, following the
// primary store's client-construction shape.
type Config struct {
	Addrs            []string
	Username         string
	Password         string
	KeyPrefix        string
	RequestTimeoutMs int
}

// Adapter implements engine.Adapter against Redis sorted-set indexes
// (per tenant + entity) and hash-stored documents.
type Adapter struct {
	client  rueidis.Client
	prefix  string
	timeout time.Duration
}

func New(cfg Config) (*Adapter, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("simple engine: addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("simple engine: create client: %w", err)
	}

	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}

	return &Adapter{client: client, prefix: cfg.KeyPrefix, timeout: timeout}, nil
}

func (a *Adapter) Name() string { return "simple" }

func (a *Adapter) Health(ctx context.Context) bool {
	cmd := a.client.B().Ping().Build()
	return a.client.Do(ctx, cmd).Error() == nil
}

func (a *Adapter) Close() {
	a.client.Close()
}

// Search returns an exact-filter page from the tenant/entity index. Sort
// order follows the index's own insertion score; free text and
// highlighting are not supported here. Of req.Filters only "entity" is
// read, to pick the index (the first value of an array); other filters
// are not applied.
func (a *Adapter) Search(ctx context.Context, req domain.Request) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	offset, err := decodeCursor(req.Page.Cursor)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: undecodable cursor", domain.ErrBadRequest)
	}

	size := req.Page.EffectiveSize(domain.DefaultPageSize)

	indexKey := a.indexKey(req.TenantID, req)
	ids, err := a.zrange(ctx, indexKey, offset, size)
	if err != nil {
		return domain.Response{}, fmt.Errorf("simple search: %w", err)
	}

	hits, err := a.hydrate(ctx, req.TenantID, ids)
	if err != nil {
		return domain.Response{}, fmt.Errorf("simple search: %w", err)
	}

	total, err := a.zcard(ctx, indexKey)
	if err != nil {
		total = offset + len(hits)
	}

	hasMore := offset+len(ids) < total
	nextCursor := ""
	if hasMore {
		nextCursor = encodeCursor(offset + size)
	}

	return domain.Response{
		Hits:        hits,
		Total:       domain.Total{Value: total, Relation: domain.RelationEq},
		Page:        domain.ResponsePage{Size: size, Cursor: nextCursor, HasMore: hasMore},
		Performance: domain.Performance{Engine: "simple"},
	}, nil
}

// FilterByIDs restricts ids to those present in the tenant/entity index,
// used by the dispatcher's hybrid plan to intersect the complex engine's
// ranked hits. As in Search, only the "entity" filter is read (it picks
// the index); other filters in req are not evaluated.
func (a *Adapter) FilterByIDs(ctx context.Context, req domain.Request, ids []string) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	indexKey := a.indexKey(req.TenantID, req)
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		cmd := a.client.B().Zscore().Key(indexKey).Member(id).Build()
		if _, err := a.client.Do(ctx, cmd).ToString(); err == nil {
			kept = append(kept, id)
		}
	}

	hits, err := a.hydrate(ctx, req.TenantID, kept)
	if err != nil {
		return domain.Response{}, fmt.Errorf("simple filter_by_ids: %w", err)
	}

	return domain.Response{
		Hits:        hits,
		Total:       domain.Total{Value: len(hits), Relation: domain.RelationEq},
		Performance: domain.Performance{Engine: "simple"},
	}, nil
}

// Suggest returns prefix matches from a tenant-scoped sorted set built for
// lexicographic range scans, a common Redis autocomplete pattern.
func (a *Adapter) Suggest(ctx context.Context, req engine.SuggestRequest) (domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("%ssuggest:%s", a.prefix, req.TenantID)
	minLex := "[" + req.Prefix
	maxLex := "[" + req.Prefix + "\xff"

	cmd := a.client.B().Zrangebylex().Key(key).Min(minLex).Max(maxLex).Limit(0, int64(limit)).Build()
	members, err := a.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return domain.Response{}, fmt.Errorf("simple suggest: %w", err)
	}

	hits := make([]domain.Hit, 0, len(members))
	for i, m := range members {
		text, suggestContext := splitSuggestMember(m)
		score := 1.0 - float64(i)*0.01
		hits = append(hits, domain.Hit{
			ID:     text,
			Score:  &score,
			Source: map[string]any{"text": text, "context": suggestContext},
		})
	}

	return domain.Response{
		Hits:        hits,
		Total:       domain.Total{Value: len(hits), Relation: domain.RelationEq},
		Performance: domain.Performance{Engine: "simple"},
	}, nil
}

func (a *Adapter) indexKey(tenantID string, req domain.Request) string {
	entity := "default"
	if f, ok := req.Filters["entity"]; ok {
		switch f.Kind {
		case domain.FilterScalar:
			entity = f.Scalar
		case domain.FilterArray:
			if len(f.Array) > 0 {
				entity = f.Array[0]
			}
		}
	}
	return fmt.Sprintf("%sidx:%s:%s", a.prefix, tenantID, entity)
}

func (a *Adapter) zrange(ctx context.Context, key string, offset, size int) ([]string, error) {
	cmd := a.client.B().Zrevrange().Key(key).Start(int64(offset)).Stop(int64(offset + size - 1)).Build()
	return a.client.Do(ctx, cmd).AsStrSlice()
}

func (a *Adapter) zcard(ctx context.Context, key string) (int, error) {
	cmd := a.client.B().Zcard().Key(key).Build()
	n, err := a.client.Do(ctx, cmd).AsInt64()
	return int(n), err
}

func (a *Adapter) hydrate(ctx context.Context, tenantID string, ids []string) ([]domain.Hit, error) {
	hits := make([]domain.Hit, 0, len(ids))
	for _, id := range ids {
		key := fmt.Sprintf("%sdoc:%s:%s", a.prefix, tenantID, id)
		cmd := a.client.B().Hgetall().Key(key).Build()
		fields, err := a.client.Do(ctx, cmd).AsStrMap()
		if err != nil {
			return nil, err
		}
		source := make(map[string]any, len(fields))
		for k, v := range fields {
			source[k] = v
		}
		hits = append(hits, domain.Hit{ID: id, Source: source})
	}
	return hits, nil
}

func splitSuggestMember(m string) (text, context string) {
	idx := strings.LastIndex(m, "\x1f")
	if idx < 0 {
		return m, ""
	}
	return m[:idx], m[idx+1:]
}
