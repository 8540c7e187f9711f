package httpapi

import (
	"errors"
	"net/http"

	"phonebook.org/internal/auth"
	"phonebook.org/internal/directory"
	"phonebook.org/internal/validate"
)

type addEntryRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

func (a *API) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	var req addEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := a.dir.Add(r.Context(), actor, req.Name, req.PhoneNumber)
	if err != nil {
		handleDirectoryError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	entries, err := a.dir.List(r.Context(), actor)
	if err != nil {
		handleDirectoryError(w, r, err, "")
		return
	}
	if entries == nil {
		entries = []directory.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleDeleteByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	deleted, err := a.dir.DeleteByName(r.Context(), actor, r.URL.Query().Get("name"))
	if err != nil {
		handleDirectoryError(w, r, err, "Name not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted " + deleted.Name + " from the phone book"})
}

func (a *API) handleDeleteByNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	deleted, err := a.dir.DeleteByNumber(r.Context(), actor, r.URL.Query().Get("phone_number"))
	if err != nil {
		handleDirectoryError(w, r, err, "Phone number not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted " + deleted.PhoneNumber + " from the phone book"})
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, r)
		return
	}
	recs, err := a.dir.AuditLog(r.Context(), actor)
	if err != nil {
		handleDirectoryError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, directory.ErrNotFound):
		if notFound == "" {
			notFound = "entry not found"
		}
		writeError(w, r, http.StatusNotFound, notFound)
	case errors.Is(err, directory.ErrConflict):
		writeError(w, r, http.StatusBadRequest, "Phone number already listed")
	default:
		internalError(w, r, "directory", err)
	}
}
