/*
identity.go - Caller identity extraction

PURPOSE:
  The engine consumes an opaque identity; this file decides where a
  request's identity comes from. The default resolver reads the X-Account
  header, which is enough for demos and for fronting proxies that inject
  an authenticated subject. Hosts with real authentication implement
  IdentityResolver themselves.

SEE ALSO:
  - server.go: Applies RequireIdentity to the mutating route groups
  - market/authz.go: The privilege predicate behind admin operations
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/storefront-engine/market"
)

// DefaultIdentityHeader carries the caller identity on demo deployments.
const DefaultIdentityHeader = "X-Account"

// IdentityResolver extracts the caller identity from a request. The
// second return value reports whether an identity was present at all.
type IdentityResolver interface {
	Resolve(r *http.Request) (market.Identity, bool)
}

// HeaderIdentity resolves the identity from a single header.
type HeaderIdentity struct {
	// Header defaults to DefaultIdentityHeader when empty.
	Header string
}

func (h HeaderIdentity) Resolve(r *http.Request) (market.Identity, bool) {
	header := h.Header
	if header == "" {
		header = DefaultIdentityHeader
	}
	value := r.Header.Get(header)
	if value == "" {
		return "", false
	}
	return market.Identity(value), true
}

type identityCtxKey struct{}

// RequireIdentity rejects requests without a resolvable identity and puts
// the identity on the context for handlers downstream. Missing identity
// is 401; the engine's own ErrUnauthorized (resolved identity without
// privilege) maps to 403 in the handlers.
func RequireIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := resolver.Resolve(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing caller identity", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

func withIdentity(ctx context.Context, id market.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// identityFrom returns the identity placed by RequireIdentity. Handlers
// behind the middleware can rely on presence.
func identityFrom(ctx context.Context) market.Identity {
	id, _ := ctx.Value(identityCtxKey{}).(market.Identity)
	return id
}
