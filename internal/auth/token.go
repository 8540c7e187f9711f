package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer   = "phonebook"
	defaultTokenTTL = 30 * time.Minute
	tokenTypeBearer = "bearer"
)

// Claims are the verified contents of a session token.
type Claims struct {
	ID           string
	Username     string
	Role         Role
	TokenVersion int64
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// tokenClaims is the signed payload. TokenVersion is a pointer so a missing
// claim can be told apart from version zero.
type tokenClaims struct {
	Role         string `json:"role"`
	TokenVersion *int64 `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. It holds no state
// beyond its configuration and is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithTokenTTL configures token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService signing with secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token secret is required")
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for identity stamped with its current token version.
func (s *TokenService) Issue(identity Identity) (Token, error) {
	if strings.TrimSpace(identity.Username) == "" {
		return Token{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !identity.Role.Valid() {
		return Token{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, identity.Role)
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)
	version := identity.TokenVersion
	claims := tokenClaims{
		Role:         string(identity.Role),
		TokenVersion: &version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: tokenTypeBearer, ExpiresAt: exp}, nil
}

// Verify checks signature, expiry and required claims. It does not consult
// the identity store, so a token that passes Verify may still be revoked.
func (s *TokenService) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, tokenFailure(FailureMalformed, errors.New("empty token"))
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, tokenFailure(FailureInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, tokenFailure(FailureExpired, err)
		default:
			return Claims{}, tokenFailure(FailureMalformed, err)
		}
	}

	if strings.TrimSpace(tc.Subject) == "" {
		return Claims{}, tokenFailure(FailureMalformed, errors.New("subject missing"))
	}
	role := Role(tc.Role)
	if !role.Valid() {
		return Claims{}, tokenFailure(FailureMalformed, fmt.Errorf("unknown role %q", tc.Role))
	}
	if tc.TokenVersion == nil {
		return Claims{}, tokenFailure(FailureMalformed, errors.New("token_version missing"))
	}

	claims := Claims{
		ID:           tc.ID,
		Username:     tc.Subject,
		Role:         role,
		TokenVersion: *tc.TokenVersion,
		ExpiresAt:    tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}
