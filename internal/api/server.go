// ABOUTME: API server wiring: dependencies, route registration, middleware chains
// ABOUTME: All handlers hang off Server; Routes() returns the assembled mux

package api

import (
	"log/slog"
	"net/http"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/notify"
	"github.com/petertonysmith94/bako-safe-api/internal/replay"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// Server holds the API's collaborators and exposes the HTTP handlers.
type Server struct {
	store    store.Store
	manager  *auth.Manager
	verifier *auth.WalletVerifier
	policy   *auth.Policy
	guard    *replay.Guard
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewServer assembles the API server from its collaborators.
func NewServer(st store.Store, manager *auth.Manager, policy *auth.Policy, guard *replay.Guard, notifier *notify.Notifier) *Server {
	return &Server{
		store:    st,
		manager:  manager,
		verifier: auth.NewWalletVerifier(),
		policy:   policy,
		guard:    guard,
		notifier: notifier,
		logger:   slog.Default().With("component", "api"),
	}
}

// Routes builds the route table. Sign-in is the only unauthenticated API
// endpoint; everything else passes through the Authenticate middleware, and
// capability-gated routes additionally pass RequirePermissions.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	authed := auth.Authenticate(s.store, s.store, s.manager)
	gate := func(required ...string) func(http.Handler) http.Handler {
		return auth.RequirePermissions(s.policy, required...)
	}

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/sign-in", s.handleSignIn)
	mux.Handle("POST /api/auth/sign-out", authed(http.HandlerFunc(s.handleSignOut)))
	mux.Handle("PUT /api/auth/workspace/{id}", authed(http.HandlerFunc(s.handleSwitchWorkspace)))

	mux.Handle("GET /api/user/me", authed(http.HandlerFunc(s.handleMe)))

	mux.Handle("POST /api/workspace", authed(http.HandlerFunc(s.handleCreateWorkspace)))
	mux.Handle("GET /api/workspace", authed(http.HandlerFunc(s.handleListWorkspaces)))
	mux.Handle("GET /api/workspace/{id}", authed(http.HandlerFunc(s.handleGetWorkspace)))
	mux.Handle("POST /api/workspace/{id}/members", authed(http.HandlerFunc(s.handleAddMember)))
	mux.Handle("DELETE /api/workspace/{id}/members/{userID}", authed(http.HandlerFunc(s.handleRemoveMember)))
	mux.Handle("PUT /api/workspace/{id}/members/{userID}/permissions", authed(http.HandlerFunc(s.handleSetMemberPermissions)))

	mux.Handle("POST /api/predicate", authed(gate(auth.CapVaultCreate)(http.HandlerFunc(s.handleCreatePredicate))))
	mux.Handle("GET /api/predicate", authed(gate(auth.CapVaultRead)(http.HandlerFunc(s.handleListPredicates))))
	mux.Handle("GET /api/predicate/{id}", authed(gate(auth.CapVaultRead)(http.HandlerFunc(s.handleGetPredicate))))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userView is the wire shape of a user profile.
type userView struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Notify  bool   `json:"notify"`
}

func viewUser(u *store.User) userView {
	return userView{ID: u.ID, Address: u.Address, Name: u.Name, Avatar: u.Avatar, Notify: u.Notify}
}

// workspaceView is the wire shape of a workspace summary. Permissions carries
// the requesting caller's effective capability set when relevant.
type workspaceView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar,omitempty"`
	Single      bool     `json:"single"`
	OwnerID     string   `json:"owner_id"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (s *Server) viewWorkspaceFor(ws *store.Workspace, userID string) workspaceView {
	effective := s.policy.Effective(ws, userID)
	return workspaceView{
		ID:          ws.ID,
		Name:        ws.Name,
		Avatar:      ws.Avatar,
		Single:      ws.Single,
		OwnerID:     ws.OwnerID,
		Role:        string(effective.Role),
		Permissions: effective.Capabilities,
	}
}
