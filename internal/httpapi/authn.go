package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/auth"
	"phonebook.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	// Single message for every token failure so callers cannot tell which
	// check rejected them.
	unauthorizedMessage = "could not validate credentials"
)

var publicPaths = []string{
	"/users",
	"/token",
	"/metrics",
	"/healthz",
	"/readyz",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.ObserveAuthFailure("missing_token")
			respondUnauthorized(w, r)
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			var tokErr *auth.TokenError
			if errors.As(err, &tokErr) {
				obs.ObserveAuthFailure(string(tokErr.Reason))
				_ = audit.LogEvent(r.Context(), "auth.token.rejected", map[string]any{
					"reason": string(tokErr.Reason),
					"path":   r.URL.Path,
				})
				respondUnauthorized(w, r)
				return
			}
			obs.Logger().Error("authenticate", zap.Error(err),
				zap.String("request_id", audit.RequestIDFromContext(r.Context())))
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, unauthorizedMessage)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
