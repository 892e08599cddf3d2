// ABOUTME: User endpoints: the authenticated profile view
// ABOUTME: Returns the caller's profile plus every workspace they belong to

package api

import (
	"net/http"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
)

type meResponse struct {
	User       userView        `json:"user"`
	Workspace  workspaceView   `json:"workspace"`
	Workspaces []workspaceView `json:"workspaces"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	workspaces, err := s.store.ListWorkspacesByUser(r.Context(), authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]workspaceView, 0, len(workspaces))
	for _, ws := range workspaces {
		views = append(views, s.viewWorkspaceFor(ws, authCtx.User.ID))
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:       viewUser(authCtx.User),
		Workspace:  s.viewWorkspaceFor(authCtx.Workspace, authCtx.User.ID),
		Workspaces: views,
	})
}
