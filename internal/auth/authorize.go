package auth

import "fmt"

// Capability is a permission predicate over a role.
type Capability struct {
	Name  string
	Allow func(Role) bool
}

var (
	CapabilityRead  = Capability{Name: "read", Allow: Role.CanRead}
	CapabilityWrite = Capability{Name: "write", Allow: Role.CanWrite}
)

// Require permits identity only if its role satisfies every capability.
// The check is pure; identity is expected to be verified already.
func Require(identity Identity, caps ...Capability) error {
	for _, c := range caps {
		if c.Allow == nil || !c.Allow(identity.Role) {
			return fmt.Errorf("%w: %s requires %s access", ErrForbidden, roleLabel(identity.Role), c.Name)
		}
	}
	return nil
}

// RequireRead permits Read and ReadWrite identities.
func RequireRead(identity Identity) error { return Require(identity, CapabilityRead) }

// RequireWrite permits ReadWrite identities only.
func RequireWrite(identity Identity) error { return Require(identity, CapabilityWrite) }

func roleLabel(r Role) string {
	if r == "" {
		return "anonymous"
	}
	return string(r)
}
