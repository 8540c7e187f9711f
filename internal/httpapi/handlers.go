package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/auth"
	"phonebook.org/internal/directory"
	"phonebook.org/internal/obs"
)

const (
	serviceName         = "phonebook-api"
	defaultMaxBodyBytes = 1 << 20
)

type readinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe checks readiness by pinging the database, if one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the HTTP layer to the services it fronts.
type Options struct {
	Auth         *auth.Service
	Directory    *directory.Service
	Ready        readinessChecker
	Version      string
	CORSOrigins  []string
	MaxBodyBytes int64
}

// API is the HTTP boundary.
type API struct {
	mux          *http.ServeMux
	auth         *auth.Service
	dir          *directory.Service
	ready        readinessChecker
	version      string
	corsOrigins  []string
	maxBodyBytes int64
}

func New(opts Options) (*API, error) {
	if opts.Auth == nil {
		return nil, errors.New("httpapi: auth service is required")
	}
	if opts.Directory == nil {
		return nil, errors.New("httpapi: directory service is required")
	}
	a := &API{
		mux:          http.NewServeMux(),
		auth:         opts.Auth,
		dir:          opts.Directory,
		ready:        opts.Ready,
		version:      opts.Version,
		corsOrigins:  opts.CORSOrigins,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	if a.ready == nil {
		a.ready = ReadyProbe{}
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = defaultMaxBodyBytes
	}

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// credentials
	a.mux.HandleFunc("/users", a.handleSignup)
	a.mux.HandleFunc("/token", a.handleToken)
	a.mux.HandleFunc("/logout", a.handleLogout)

	// directory
	a.mux.HandleFunc("/phonebook/add", a.handleAdd)
	a.mux.HandleFunc("/phonebook/list", a.handleList)
	a.mux.HandleFunc("/phonebook/deleteByName", a.handleDeleteByName)
	a.mux.HandleFunc("/phonebook/deleteByNumber", a.handleDeleteByNumber)
	a.mux.HandleFunc("/audit-logs", a.handleAuditLogs)
	a.mux.HandleFunc("/audit-logs/", a.handleAuditLogs)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a, nil
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.ready.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
