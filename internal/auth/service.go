package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLen   = 64
	maxPasswordBytes = 72
)

// Service registers identities, issues tokens and resolves bearer tokens back
// to the current stored identity.
type Service struct {
	store      IdentityStore
	tokens     *TokenService
	bcryptCost int
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithBcryptCost sets the hashing cost used at signup.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("auth: bcrypt cost %d out of range", cost)
		}
		s.bcryptCost = cost
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(store IdentityStore, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: identity store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	svc := &Service{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Tokens exposes the underlying token service.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Signup registers a new identity and returns a token for it.
func (s *Service) Signup(ctx context.Context, username, password, role string) (Token, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return Token{}, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return Token{}, err
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return Token{}, fmt.Errorf("hash password: %w", err)
	}
	identity, err := s.store.Create(ctx, Identity{
		Username:     username,
		PasswordHash: hash,
		Role:         r,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return Token{}, err
		}
		return Token{}, fmt.Errorf("create identity: %w", err)
	}
	return s.tokens.Issue(identity)
}

// Login checks the password, bumps the token version and issues a token
// carrying the new version. Tokens issued earlier stop authenticating.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, ErrInvalidCredentials
	}
	identity, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("load identity: %w", err)
	}
	if err := VerifyPassword(identity.PasswordHash, password); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	version, err := s.store.BumpTokenVersion(ctx, username)
	if err != nil {
		return Token{}, fmt.Errorf("bump token version: %w", err)
	}
	identity.TokenVersion = version
	return s.tokens.Issue(identity)
}

// Logout revokes every outstanding token for username.
func (s *Service) Logout(ctx context.Context, username string) error {
	if _, err := s.store.BumpTokenVersion(ctx, username); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("bump token version: %w", err)
	}
	return nil
}

// Authenticate verifies raw and resolves it to the stored identity. A token
// whose version differs from the stored one, or whose subject no longer
// exists, fails with ErrRevokedToken.
func (s *Service) Authenticate(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, err
	}
	identity, err := s.store.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, tokenFailure(FailureRevokedVersion, errors.New("subject no longer exists"))
		}
		return Identity{}, fmt.Errorf("load identity: %w", err)
	}
	if identity.TokenVersion != claims.TokenVersion {
		return Identity{}, tokenFailure(FailureRevokedVersion,
			fmt.Errorf("token version %d, current %d", claims.TokenVersion, identity.TokenVersion))
	}
	return identity, nil
}

func checkCredentials(username, password string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	case len(username) > maxUsernameLen:
		return fmt.Errorf("%w: username is too long", ErrInvalidInput)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("%w: password is too long", ErrInvalidInput)
	}
	return nil
}
