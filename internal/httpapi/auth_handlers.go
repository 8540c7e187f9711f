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

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := a.auth.Signup(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrConflict):
			writeError(w, r, http.StatusBadRequest, "Username already registered")
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "auth: "))
		default:
			internalError(w, r, "signup", err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user": strings.TrimSpace(req.Username),
		"role": req.Role,
	})
	writeJSON(w, http.StatusOK, token)
}

// handleToken accepts the OAuth2 password-grant form fields username and
// password.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")

	token, err := a.auth.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			obs.ObserveAuthFailure("invalid_credentials")
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"user": username})
			writeError(w, r, http.StatusBadRequest, "Incorrect username or password")
			return
		}
		internalError(w, r, "login", err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user":       username,
		"expires_at": token.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, token)
}

// handleLogout revokes every token held by the caller.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	if err := a.auth.Logout(r.Context(), identity.Username); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			respondUnauthorized(w, r)
			return
		}
		internalError(w, r, "logout", err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	obs.Logger().Error(op+" failed",
		zap.Error(err),
		zap.String("request_id", audit.RequestIDFromContext(r.Context())))
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
