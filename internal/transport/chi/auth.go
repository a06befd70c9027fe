package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, ready, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

type ctxKey struct{}

// claimsFromContext returns the claims attached by BearerAuthMiddleware, or
// the zero value if none were attached. An absent or disabled bearer token
// carries no roles or groups, which authorizes as an ordinary tenant caller.
func claimsFromContext(ctx context.Context) domain.Claims {
	claims, ok := ctx.Value(ctxKey{}).(domain.Claims)
	if !ok {
		return domain.Claims{}
	}
	return claims
}

// tokenClaims resolves a bearer token to claims. Deployments plug in a real
// identity provider behind this; this gateway does not issue or verify
// tokens itself.
type tokenClaims interface {
	Claims(token string) (domain.Claims, bool)
}

// staticTokenClaims is a fixed token-to-claims table, useful for
// deployments that authorize via a small number of long-lived service
// tokens rather than a full identity provider.
type staticTokenClaims map[string]domain.Claims

func (m staticTokenClaims) Claims(token string) (domain.Claims, bool) {
	claims, ok := m[token]
	return claims, ok
}

// NewStaticTokenClaims builds a tokenClaims resolver from a fixed table.
func NewStaticTokenClaims(table map[string]domain.Claims) tokenClaims {
	return staticTokenClaims(table)
}

// BearerAuthMiddleware validates bearer tokens and attaches the resolved
// claims to the request context. If resolver is nil, authentication is
// disabled (pass-through, zero-value claims).
func BearerAuthMiddleware(resolver tokenClaims) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if resolver == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, domain.CodeBadRequest, "authorization header must use Bearer scheme")
				return
			}

			token := strings.TrimPrefix(auth, bearerPrefix)
			claims, ok := resolver.Claims(token)
			if !ok {
				writeError(w, http.StatusUnauthorized, domain.CodeForbidden, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
