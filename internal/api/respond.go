// ABOUTME: JSON response helpers and the error-to-problem mapping
// ABOUTME: Every failure leaves the API as a {type, title, detail} problem

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// problem is the wire shape for every API failure.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error onto its HTTP status and problem type.
// Unrecognized errors are logged and reported as an opaque 500 so storage
// and collaborator shapes never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeJSON(w, http.StatusUnauthorized, problem{Type: "missing_credentials", Title: "Missing credentials", Detail: err.Error()})
	case errors.Is(err, auth.ErrMalformedSignature):
		writeJSON(w, http.StatusUnauthorized, problem{Type: "malformed_signature", Title: "Malformed signature", Detail: err.Error()})
	case errors.Is(err, auth.ErrInvalidSignature):
		writeJSON(w, http.StatusUnauthorized, problem{Type: "invalid_signature", Title: "Invalid signature", Detail: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, problem{Type: "invalid_credential", Title: "Invalid credential", Detail: err.Error()})
	case errors.Is(err, auth.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, problem{Type: "session_expired", Title: "Session expired", Detail: err.Error()})
	case errors.Is(err, auth.ErrMissingPermission):
		writeJSON(w, http.StatusForbidden, problem{Type: "missing_permission", Title: "Missing permission", Detail: err.Error()})
	case errors.Is(err, auth.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, problem{Type: "not_authorized", Title: "Not authorized", Detail: err.Error()})
	case errors.Is(err, auth.ErrOwnerImmutable):
		writeJSON(w, http.StatusForbidden, problem{Type: "owner_immutable", Title: "Owner permissions are immutable", Detail: err.Error()})
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrWorkspaceNotFound),
		errors.Is(err, store.ErrPredicateNotFound),
		errors.Is(err, store.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, problem{Type: "not_found", Title: "Not found", Detail: err.Error()})
	case errors.Is(err, store.ErrAddressExists),
		errors.Is(err, store.ErrMemberExists):
		writeJSON(w, http.StatusConflict, problem{Type: "conflict", Title: "Conflict", Detail: err.Error()})
	default:
		slog.Default().With("component", "api").Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, problem{Type: "internal", Title: "Internal error"})
	}
}

// writeBadRequest reports a malformed or incomplete request body.
func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, problem{Type: "bad_request", Title: "Bad request", Detail: detail})
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
