// Package tenant resolves the caller's tenant identity from transport
// headers, applies mandatory tenant scoping to a request, and memoizes each
// tenant's routing strategy for the process lifetime.
package tenant

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

const headerTenantID = "X-Tenant-ID"

// Resolve extracts the tenant identifier from request headers. A missing or
// blank header fails fast with domain.ErrMissingTenant, before any
// downstream work happens.
func Resolve(h http.Header) (string, error) {
	id := strings.TrimSpace(h.Get(headerTenantID))
	if id == "" {
		return "", domain.ErrMissingTenant
	}
	return id, nil
}

// ApplyAuthorization decorates req with the mandatory tenant scope and any
// ACL filters implied by claims. Any tenant_id present in the request body
// is ignored; the header is the only source of truth. A caller whose
// claims explicitly deny access gets domain.ErrForbidden.
func ApplyAuthorization(req domain.Request, tenantID string, claims domain.Claims) (domain.Request, error) {
	for _, role := range claims.Roles {
		if role == "suspended" {
			return domain.Request{}, domain.ErrForbidden
		}
	}

	req.TenantID = tenantID
	if req.Filters == nil {
		req.Filters = make(map[string]domain.Filter, 1)
	}
	req.Filters["_tenant"] = domain.Filter{Kind: domain.FilterScalar, Scalar: tenantID}

	if len(claims.Groups) > 0 {
		// ACL scoping is a single-group visibility bucket for this
		// gateway; multi-group union filters would need OR support the
		// simple engine's exact-match filters don't have.
		req.Filters["_acl_group"] = domain.Filter{Kind: domain.FilterScalar, Scalar: claims.Groups[0]}
	}

	return req, nil
}
