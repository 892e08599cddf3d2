// ABOUTME: HTTP middleware enforcing authentication and capability checks
// ABOUTME: Resolves credential to session, renews the sliding window, attaches AuthContext

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// HeaderSignerAddress optionally carries the claimed wallet address alongside
// the bearer credential. When present it must match the session owner.
const HeaderSignerAddress = "X-Signer-Address"

// problem is the wire shape for authorization failures, shared with the API
// package's responder.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, ptype, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(problem{Type: ptype, Title: title, Detail: detail})
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Authenticate creates an HTTP middleware that resolves the bearer credential
// to a live session, renews its sliding expiry, loads the owning user and the
// active workspace, and attaches an AuthContext to the request. Requests
// without any credential are rejected before the store is touched.
func Authenticate(users store.UserStore, workspaces store.WorkspaceStore, manager *Manager) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				writeProblem(w, http.StatusUnauthorized, "missing_credentials", "Missing credentials", errMsg)
				return
			}

			session, err := manager.Recover(r.Context(), token)
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, "invalid_credential", "Invalid credential", "credential does not resolve to a session")
				return
			}

			session, err = manager.Renew(r.Context(), session)
			if err != nil {
				if errors.Is(err, ErrSessionExpired) {
					writeProblem(w, http.StatusUnauthorized, "session_expired", "Session expired", "sign in again")
					return
				}
				writeProblem(w, http.StatusUnauthorized, "invalid_credential", "Invalid credential", "session is no longer live")
				return
			}

			user, err := users.GetUser(r.Context(), session.UserID)
			if err != nil {
				logger.Error("resolving session user", "session", session.ID, "error", err)
				writeProblem(w, http.StatusUnauthorized, "invalid_credential", "Invalid credential", "session owner not found")
				return
			}

			// A claimed signer address, when sent, must belong to the session owner
			if claimed := r.Header.Get(HeaderSignerAddress); claimed != "" && claimed != user.Address {
				writeProblem(w, http.StatusUnauthorized, "invalid_credential", "Invalid credential", "signer address does not match session owner")
				return
			}

			workspace, err := workspaces.GetWorkspace(r.Context(), session.WorkspaceID)
			if err != nil {
				logger.Error("resolving session workspace", "session", session.ID, "error", err)
				writeProblem(w, http.StatusInternalServerError, "internal", "Internal error", "")
				return
			}

			authCtx := &AuthContext{User: user, Session: session, Workspace: workspace}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// RequirePermissions creates an HTTP middleware that enforces the required
// capability set against the caller's effective permissions in the active
// workspace. Must be used after Authenticate. An empty required set only
// asserts that authentication happened.
func RequirePermissions(policy *Policy, required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := FromContext(r.Context())
			if authCtx == nil || authCtx.User == nil || authCtx.Workspace == nil {
				writeProblem(w, http.StatusUnauthorized, "missing_credentials", "Missing credentials", "not authenticated")
				return
			}

			effective := policy.Effective(authCtx.Workspace, authCtx.User.ID)
			if !Satisfies(effective, required) {
				writeProblem(w, http.StatusForbidden, "missing_permission", "Missing permission",
					"required: "+strings.Join(required, ", "))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
