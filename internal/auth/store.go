package auth

import "context"

// IdentityStore persists identities. Implementations must serialize
// concurrent version bumps for the same username.
type IdentityStore interface {
	// Create inserts identity. It returns ErrConflict if the username exists.
	Create(ctx context.Context, identity Identity) (Identity, error)
	// FindByUsername returns ErrNotFound for unknown usernames.
	FindByUsername(ctx context.Context, username string) (Identity, error)
	// BumpTokenVersion increments the token version and returns the new value.
	BumpTokenVersion(ctx context.Context, username string) (int64, error)
}
