package policy

import (
	"errors"
	"testing"

	"github.com/planvault/planvault/internal/domain/identity"
)

func testPolicy() *Policy {
	return New([]string{"alice"}, map[string]Tier{
		"create_thing": TierWrite,
		"list_things":  TierRead,
	})
}

func TestAuthorize(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name      string
		operation string
		id        identity.Identity
		wantDeny  bool
	}{
		{"privileged write", "create_thing", identity.Identity{Handle: "alice"}, false},
		{"privileged read", "list_things", identity.Identity{Handle: "alice"}, false},
		{"unprivileged read", "list_things", identity.Identity{Handle: "bob"}, false},
		{"unprivileged write", "create_thing", identity.Identity{Handle: "bob"}, true},
		{"anonymous read", "list_things", identity.Identity{}, true},
		{"anonymous write", "create_thing", identity.Identity{}, true},
		{"unknown operation", "drop_tables", identity.Identity{Handle: "alice"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(tt.operation, tt.id)
			if tt.wantDeny {
				if !errors.Is(err, ErrDenied) {
					t.Fatalf("expected ErrDenied, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
		})
	}
}

func TestDenialMessageIsGeneric(t *testing.T) {
	p := testPolicy()

	err := p.Authorize("create_thing", identity.Identity{Handle: "bob"})
	if err == nil {
		t.Fatal("expected denial")
	}
	// The same message for every refusal: membership is never revealed.
	anon := p.Authorize("list_things", identity.Identity{})
	if err.Error() != anon.Error() {
		t.Errorf("denial messages differ: %q vs %q", err, anon)
	}
}

func TestTierOf(t *testing.T) {
	p := testPolicy()

	if got := p.TierOf("alice"); got != identity.TierWrite {
		t.Errorf("expected write tier for alice, got %q", got)
	}
	if got := p.TierOf("bob"); got != identity.TierRead {
		t.Errorf("expected read tier for bob, got %q", got)
	}
}
