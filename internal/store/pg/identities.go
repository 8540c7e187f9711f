package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phonebook.org/internal/auth"
	"phonebook.org/internal/ids"
)

func (s *Store) Create(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	if s.db == nil {
		return auth.Identity{}, errors.New("database connection unavailable")
	}
	if identity.ID == "" {
		identity.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into identities (id, username, password_hash, role, token_version)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, identity.ID, identity.Username, identity.PasswordHash, string(identity.Role), identity.TokenVersion).
		Scan(&identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.Identity{}, auth.ErrConflict
		}
		if isConstraintViolation(err) {
			return auth.Identity{}, fmt.Errorf("%w: %v", auth.ErrInvalidInput, err)
		}
		return auth.Identity{}, err
	}
	return identity, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (auth.Identity, error) {
	if s.db == nil {
		return auth.Identity{}, errors.New("database connection unavailable")
	}
	var (
		identity auth.Identity
		role     string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, username, password_hash, role, token_version, created_at
		from identities
		where username = $1
	`, username).Scan(&identity.ID, &identity.Username, &identity.PasswordHash, &role, &identity.TokenVersion, &identity.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Identity{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Identity{}, err
	}
	identity.Role = auth.Role(role)
	return identity, nil
}

// BumpTokenVersion increments in a single statement so concurrent logins
// serialize on the row lock.
func (s *Store) BumpTokenVersion(ctx context.Context, username string) (int64, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	var version int64
	err := s.db.QueryRowContext(ctx, `
		update identities set token_version = token_version + 1
		where username = $1
		returning token_version
	`, username).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, auth.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}
