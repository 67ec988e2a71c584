// Package identity defines the authenticated caller context.
package identity

// Tier is the permission level of an identity.
type Tier string

const (
	// TierRead allows list/get/search operations only.
	TierRead Tier = "read"
	// TierWrite allows all operations.
	TierWrite Tier = "write"
)

// Identity is the opaque, already-authenticated caller attached to every
// operation. It is produced by the authentication layer and consumed
// read-only downstream; the core never mutates or persists it.
type Identity struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Tier        Tier   `json:"tier"`
}

// Authenticated reports whether the identity carries a caller handle.
func (i Identity) Authenticated() bool {
	return i.Handle != ""
}
