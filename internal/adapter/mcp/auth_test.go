package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/dispatch"
	"github.com/planvault/planvault/internal/domain/identity"
	"github.com/planvault/planvault/internal/policy"
)

func testResolver(enabled bool) *IdentityResolver {
	pol := policy.New([]string{"alice"}, dispatch.Tiers())
	return NewIdentityResolver(config.Auth{
		Enabled: enabled,
		Tokens: map[string]config.Identity{
			"alice-token": {Handle: "alice", DisplayName: "Alice"},
			"bob-token":   {Handle: "bob"},
		},
		DevHandle: "dev",
	}, pol)
}

func TestResolveDerivesTier(t *testing.T) {
	r := testResolver(true)

	id, ok := r.Resolve("alice-token")
	if !ok {
		t.Fatal("expected alice-token to resolve")
	}
	if id.Handle != "alice" || id.Tier != identity.TierWrite {
		t.Fatalf("unexpected identity %+v", id)
	}

	id, ok = r.Resolve("bob-token")
	if !ok || id.Tier != identity.TierRead {
		t.Fatalf("expected read tier for bob, got %+v ok=%v", id, ok)
	}

	if _, ok := r.Resolve("stolen-token"); ok {
		t.Fatal("unknown token must not resolve")
	}
}

func TestResolveDisabledUsesDevIdentity(t *testing.T) {
	r := testResolver(false)

	// Any token, or none, maps onto the dev identity.
	id, ok := r.Resolve("")
	if !ok || id.Handle != "dev" {
		t.Fatalf("expected dev identity, got %+v ok=%v", id, ok)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc123", "abc123"},
		{"bare api key", "abc123", "abc123"},
		{"no header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	r := testResolver(true)

	var seen identity.Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen, ok = IdentityFrom(req.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rec := httptest.NewRecorder()
	r.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ok || seen.Handle != "alice" {
		t.Fatalf("expected alice in context, got %+v ok=%v", seen, ok)
	}
}

func TestMiddlewareRejectsWithoutLeakingDetail(t *testing.T) {
	r := testResolver(true)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not run for a rejected token")
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer stolen-token")
	rec := httptest.NewRecorder()
	r.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	id := identity.Identity{Handle: "carol", Tier: identity.TierRead}
	ctx := WithIdentity(context.Background(), id)

	got, ok := IdentityFrom(ctx)
	if !ok || got != id {
		t.Fatalf("round trip failed: %+v ok=%v", got, ok)
	}

	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatal("empty context must not carry an identity")
	}
}
