package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level granted to an identity.
type Role string

const (
	RoleRead      Role = "Read"
	RoleReadWrite Role = "ReadWrite"
)

// ParseRole normalizes the role spellings accepted at the boundary.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "read":
		return RoleRead, nil
	case "readwrite", "read/write", "read-write", "read_write":
		return RoleReadWrite, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleRead || r == RoleReadWrite
}

func (r Role) CanRead() bool  { return r.Valid() }
func (r Role) CanWrite() bool { return r == RoleReadWrite }

// Identity is a registered caller. TokenVersion is bumped on every login and
// explicit logout; tokens stamped with an older version are rejected.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TokenVersion int64     `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is an issued bearer credential.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
