// Package policy maps (operation, identity) to an allow/deny decision.
package policy

import (
	"errors"

	"github.com/planvault/planvault/internal/domain/identity"
)

// ErrDenied is the generic denial returned for every refused call. The
// message deliberately never reveals which privileged set was checked.
var ErrDenied = errors.New("insufficient permissions")

// Tier is the authorization level an operation demands.
type Tier int

const (
	// TierRead operations are allowed for any authenticated identity.
	TierRead Tier = iota
	// TierWrite operations require membership in the privileged set.
	TierWrite
)

// Policy authorizes operations against a statically configured privileged
// set of handles. The set is injected at construction, never read from
// process-wide state, so tests can substitute arbitrary policies.
type Policy struct {
	privileged map[string]struct{}
	tiers      map[string]Tier
}

// New creates a policy. privilegedHandles may write; tiers declares the
// level each known operation demands.
func New(privilegedHandles []string, tiers map[string]Tier) *Policy {
	p := &Policy{
		privileged: make(map[string]struct{}, len(privilegedHandles)),
		tiers:      tiers,
	}
	for _, h := range privilegedHandles {
		p.privileged[h] = struct{}{}
	}
	return p
}

// Authorize returns nil when the identity may run the operation, or
// ErrDenied otherwise. Unknown operations are denied.
func (p *Policy) Authorize(operation string, id identity.Identity) error {
	if !id.Authenticated() {
		return ErrDenied
	}
	tier, ok := p.tiers[operation]
	if !ok {
		return ErrDenied
	}
	if tier == TierWrite {
		if _, ok := p.privileged[id.Handle]; !ok {
			return ErrDenied
		}
	}
	return nil
}

// TierOf derives the permission tier of a handle from privileged-set
// membership. The result is informational (carried on the identity); the
// authorization decision itself always goes through Authorize.
func (p *Policy) TierOf(handle string) identity.Tier {
	if _, ok := p.privileged[handle]; ok {
		return identity.TierWrite
	}
	return identity.TierRead
}
