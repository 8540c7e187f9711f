package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-please-rotate")

func newTestTokens(t *testing.T, now *time.Time, opts ...TokenOption) *TokenService {
	t.Helper()
	opts = append(opts, WithTokenClock(func() time.Time { return *now }))
	svc, err := NewTokenService(testSecret, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokens(t, &now)

	tok, err := svc.Issue(Identity{Username: "alice", Role: RoleReadWrite, TokenVersion: 4})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.TokenType != "bearer" {
		t.Fatalf("token type = %q", tok.TokenType)
	}
	if !tok.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("expires at = %v", tok.ExpiresAt)
	}

	claims, err := svc.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "alice" || claims.Role != RoleReadWrite || claims.TokenVersion != 4 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokens(t, &now, WithTokenTTL(10*time.Minute))

	tok, err := svc.Issue(Identity{Username: "alice", Role: RoleRead})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	now = now.Add(11 * time.Minute)

	_, err = svc.Verify(tok.AccessToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken match, got %v", err)
	}
}

func TestTokenVerifyRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(t, &now)
	other, err := NewTokenService([]byte("another-secret"), WithTokenClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	tok, err := other.Issue(Identity{Username: "mallory", Role: RoleReadWrite})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Verify(tok.AccessToken); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestTokenVerifyRejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(t, &now)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"sub":           "alice",
		"role":          "ReadWrite",
		"token_version": 0,
		"iss":           defaultIssuer,
		"exp":           now.Add(time.Minute).Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestTokenVerifyMalformed(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(t, &now)
	exp := now.Add(time.Minute).Unix()

	sign := func(claims jwt.MapClaims) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return raw
	}

	cases := map[string]string{
		"garbage":         "not-a-token",
		"empty":           "   ",
		"missing version": sign(jwt.MapClaims{"sub": "alice", "role": "Read", "iss": defaultIssuer, "exp": exp}),
		"missing subject": sign(jwt.MapClaims{"role": "Read", "token_version": 1, "iss": defaultIssuer, "exp": exp}),
		"unknown role":    sign(jwt.MapClaims{"sub": "alice", "role": "Admin", "token_version": 1, "iss": defaultIssuer, "exp": exp}),
		"missing expiry":  sign(jwt.MapClaims{"sub": "alice", "role": "Read", "token_version": 1, "iss": defaultIssuer}),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(raw)
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected malformed, got %v", err)
			}
		})
	}
}

func TestTokenIssueRequiresIdentity(t *testing.T) {
	now := time.Now()
	svc := newTestTokens(t, &now)
	if _, err := svc.Issue(Identity{Role: RoleRead}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.Issue(Identity{Username: "alice", Role: "Owner"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(nil); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
