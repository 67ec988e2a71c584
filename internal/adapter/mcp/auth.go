package mcp

import (
	"context"
	"net/http"
	"strings"

	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/domain/identity"
	"github.com/planvault/planvault/internal/policy"
)

type identityCtxKey struct{}

// IdentityResolver stands in for the external authentication collaborator:
// it maps an already-issued bearer token to a verified identity. When
// disabled, every request runs as the configured dev identity.
type IdentityResolver struct {
	enabled bool
	tokens  map[string]identity.Identity
	dev     identity.Identity
}

// NewIdentityResolver builds a resolver from the auth config, deriving
// each identity's tier from the policy's privileged set.
func NewIdentityResolver(cfg config.Auth, pol *policy.Policy) *IdentityResolver {
	r := &IdentityResolver{
		enabled: cfg.Enabled,
		tokens:  make(map[string]identity.Identity, len(cfg.Tokens)),
		dev: identity.Identity{
			Handle:      cfg.DevHandle,
			DisplayName: "Development",
			Tier:        pol.TierOf(cfg.DevHandle),
		},
	}
	for token, id := range cfg.Tokens {
		r.tokens[token] = identity.Identity{
			Handle:      id.Handle,
			DisplayName: id.DisplayName,
			Tier:        pol.TierOf(id.Handle),
		}
	}
	return r
}

// Resolve returns the identity for a bearer token.
func (r *IdentityResolver) Resolve(token string) (identity.Identity, bool) {
	if !r.enabled {
		return r.dev, true
	}
	id, ok := r.tokens[token]
	return id, ok
}

// Middleware rejects requests without a resolvable bearer token before
// they reach the protocol handler. With auth disabled it passes everything
// through under the dev identity.
func (r *IdentityResolver) Middleware(next http.Handler) http.Handler {
	if !r.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, ok := r.Resolve(bearerToken(req))
		if !ok {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req.WithContext(WithIdentity(req.Context(), id)))
	})
}

// HTTPContextFunc attaches the resolved identity to the MCP request
// context so tool handlers can read it.
func (r *IdentityResolver) HTTPContextFunc() func(ctx context.Context, req *http.Request) context.Context {
	return func(ctx context.Context, req *http.Request) context.Context {
		if id, ok := IdentityFrom(ctx); ok && id.Authenticated() {
			return ctx
		}
		if id, ok := r.Resolve(bearerToken(req)); ok {
			return WithIdentity(ctx, id)
		}
		return ctx
	}
}

// bearerToken extracts the token from the Authorization header. A bare
// value without the "Bearer " prefix is accepted as a plain API key.
func bearerToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	return token
}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFrom extracts the identity from the context.
func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(identity.Identity)
	return id, ok
}
