package auth

import "errors"

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: username already registered")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: incorrect username or password")
	ErrForbidden          = errors.New("auth: operation not permitted")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// TokenFailure names the check a bearer token failed.
type TokenFailure string

const (
	FailureInvalidSignature TokenFailure = "invalid_signature"
	FailureExpired          TokenFailure = "expired"
	FailureMalformed        TokenFailure = "malformed"
	FailureRevokedVersion   TokenFailure = "revoked_version"
)

// TokenError reports a rejected token. Every TokenError matches
// ErrInvalidToken, and matches another TokenError with the same Reason.
type TokenError struct {
	Reason TokenFailure
	Err    error
}

var (
	ErrInvalidSignature = &TokenError{Reason: FailureInvalidSignature}
	ErrTokenExpired     = &TokenError{Reason: FailureExpired}
	ErrMalformedToken   = &TokenError{Reason: FailureMalformed}
	ErrRevokedToken     = &TokenError{Reason: FailureRevokedVersion}
)

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "auth: token " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "auth: token " + string(e.Reason)
}

func (e *TokenError) Unwrap() error { return e.Err }

func (e *TokenError) Is(target error) bool {
	if target == ErrInvalidToken {
		return true
	}
	t, ok := target.(*TokenError)
	return ok && t.Reason == e.Reason
}

func tokenFailure(reason TokenFailure, cause error) error {
	return &TokenError{Reason: reason, Err: cause}
}
