// ABOUTME: Predicate vault endpoints scoped to the session's active workspace
// ABOUTME: Creation and reads sit behind the vault capability gates

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

type createPredicateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address"`
	Bytecode     string `json:"bytecode"`
	Configurable string `json:"configurable,omitempty"`
}

type predicateView struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Address      string    `json:"address"`
	Bytecode     string    `json:"bytecode"`
	Configurable string    `json:"configurable,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func viewPredicate(p *store.Predicate) predicateView {
	return predicateView{
		ID:           p.ID,
		WorkspaceID:  p.WorkspaceID,
		Name:         p.Name,
		Description:  p.Description,
		Address:      p.Address,
		Bytecode:     p.Bytecode,
		Configurable: p.Configurable,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
	}
}

func (s *Server) handleCreatePredicate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req createPredicateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Address == "" || req.Bytecode == "" {
		writeBadRequest(w, "name, address and bytecode are required")
		return
	}

	predicate := &store.Predicate{
		ID:           uuid.NewString(),
		WorkspaceID:  authCtx.Workspace.ID,
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		Bytecode:     req.Bytecode,
		Configurable: req.Configurable,
		CreatedBy:    authCtx.User.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreatePredicate(r.Context(), predicate); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("created predicate", "predicate", predicate.ID, "workspace", predicate.WorkspaceID)
	writeJSON(w, http.StatusCreated, viewPredicate(predicate))
}

func (s *Server) handleGetPredicate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	predicate, err := s.store.GetPredicate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Vaults are visible only inside their own workspace
	if predicate.WorkspaceID != authCtx.Workspace.ID {
		writeError(w, fmt.Errorf("%w: %s", store.ErrPredicateNotFound, predicate.ID))
		return
	}

	writeJSON(w, http.StatusOK, viewPredicate(predicate))
}

func (s *Server) handleListPredicates(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	predicates, err := s.store.ListPredicatesByWorkspace(r.Context(), authCtx.Workspace.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]predicateView, 0, len(predicates))
	for _, p := range predicates {
		views = append(views, viewPredicate(p))
	}
	writeJSON(w, http.StatusOK, views)
}
