package domain

// Request is the uniform inbound shape for /search and /explain. The tenant
// is never read from the body; it is populated from the resolved header by
// internal/tenant before a Request reaches the classifier or dispatcher.
type Request struct {
	Query      string             `json:"q,omitempty"`
	Filters    map[string]Filter  `json:"filters,omitempty"`
	Sort       []SortKey          `json:"sort,omitempty"`
	Projection []string           `json:"projection,omitempty"`
	Page       Page               `json:"page,omitempty"`
	Options    Options            `json:"options,omitempty"`

	TenantID string `json:"-"`
}

// SortKey names a field and its ordering direction.
type SortKey struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// DefaultPageSize is assumed whenever a request omits page entirely.
const DefaultPageSize = 20

// Page describes the requested page: a size and an opaque, adapter-private
// cursor for continuing a prior page. Size is a pointer because JSON
// decoding must distinguish an omitted page (nil, defaults apply) from an
// explicit size:0 (caller error, rejected).
type Page struct {
	Size   *int   `json:"size,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// EffectiveSize returns the requested size, or def when Size was not set.
func (p Page) EffectiveSize(def int) int {
	if p.Size == nil {
		return def
	}
	return *p.Size
}

// Options carries per-request behavior toggles that do not affect result
// identity for caching purposes (TimeoutMs and Strict are excluded from the
// fingerprint on purpose).
type Options struct {
	Highlight bool `json:"highlight,omitempty"`
	Suggest   bool `json:"suggest,omitempty"`
	TimeoutMs int  `json:"timeout_ms,omitempty"`
	Strict    bool `json:"strict,omitempty"`
}

// Claims carries the caller identity extracted from a pre-validated bearer
// token. This gateway does not issue or verify tokens; it only reads
// role/group hints already established by an upstream identity provider.
type Claims struct {
	Roles  []string
	Groups []string
}
