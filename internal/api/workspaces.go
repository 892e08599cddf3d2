// ABOUTME: Workspace endpoints: create, list, get, membership and permissions
// ABOUTME: Member management is gated by the member:manage capability

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/notify"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

type createWorkspaceRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	var req createWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	now := time.Now().UTC()
	ws := &store.Workspace{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Avatar:    req.Avatar,
		OwnerID:   authCtx.User.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWorkspace(r.Context(), ws); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("created workspace", "workspace", ws.ID, "owner", authCtx.User.ID)
	writeJSON(w, http.StatusCreated, s.viewWorkspaceFor(ws, authCtx.User.ID))
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, views)
}

// loadMemberWorkspace loads the workspace in the request path and verifies
// the caller belongs to it.
func (s *Server) loadMemberWorkspace(r *http.Request, callerID string) (*store.Workspace, error) {
	ws, err := s.store.GetWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if _, hasEntry := ws.Permissions[callerID]; !hasEntry && !ws.HasMember(callerID) {
		return nil, fmt.Errorf("%w: not a member of workspace %s", auth.ErrNotAuthorized, ws.ID)
	}
	return ws, nil
}

// loadManagedWorkspace loads the workspace in the request path and verifies
// the caller holds the member:manage capability in it.
func (s *Server) loadManagedWorkspace(r *http.Request, callerID string) (*store.Workspace, error) {
	ws, err := s.store.GetWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if !auth.Satisfies(s.policy.Effective(ws, callerID), []string{auth.CapMembers}) {
		return nil, fmt.Errorf("%w: %s", auth.ErrMissingPermission, auth.CapMembers)
	}
	return ws, nil
}

type memberView struct {
	User        userView `json:"user"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	ws, err := s.loadMemberWorkspace(r, authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	members := make([]memberView, 0, len(ws.Members))
	for _, memberID := range ws.Members {
		member, err := s.store.GetUser(r.Context(), memberID)
		if err != nil {
			writeError(w, err)
			return
		}
		effective := s.policy.Effective(ws, memberID)
		members = append(members, memberView{
			User:        viewUser(member),
			Role:        string(effective.Role),
			Permissions: effective.Capabilities,
		})
	}

	view := struct {
		workspaceView
		Members []memberView `json:"members"`
	}{s.viewWorkspaceFor(ws, authCtx.User.ID), members}
	writeJSON(w, http.StatusOK, view)
}

type addMemberRequest struct {
	Address string `json:"address"`
	Role    string `json:"role,omitempty"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	ws, err := s.loadManagedWorkspace(r, authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Address == "" {
		writeBadRequest(w, "address is required")
		return
	}

	role := store.RoleViewer
	if req.Role != "" {
		role = store.Role(req.Role)
		if role == store.RoleOwner || !validRole(role) {
			writeBadRequest(w, fmt.Sprintf("role %q is not assignable", req.Role))
			return
		}
	}

	// Invitees who have never signed in get a user record up front
	member, err := s.resolveOrProvisionUser(r.Context(), req.Address, "")
	if err != nil {
		writeError(w, err)
		return
	}

	perms := s.policy.DefaultPermissionSet(role)
	if err := s.store.AddMember(r.Context(), ws.ID, member.ID, perms); err != nil {
		writeError(w, err)
		return
	}

	if member.Notify && s.notifier != nil {
		s.notifier.MemberAdded(r.Context(), member.Address, notify.MemberAdded{
			Workspace: ws.Name,
			Inviter:   authCtx.User.Name,
			Role:      string(role),
		})
	}

	s.logger.Info("added member", "workspace", ws.ID, "member", member.ID, "role", role)
	writeJSON(w, http.StatusCreated, memberView{
		User:        viewUser(member),
		Role:        string(perms.Role),
		Permissions: perms.Capabilities,
	})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	ws, err := s.loadManagedWorkspace(r, authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	memberID := r.PathValue("userID")
	if memberID == ws.OwnerID {
		writeError(w, fmt.Errorf("%w: the owner cannot be removed", auth.ErrOwnerImmutable))
		return
	}

	if err := s.store.RemoveMember(r.Context(), ws.ID, memberID); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("removed member", "workspace", ws.ID, "member", memberID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setPermissionsRequest struct {
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities,omitempty"`
}

func (s *Server) handleSetMemberPermissions(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	ws, err := s.loadManagedWorkspace(r, authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req setPermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	role := store.Role(req.Role)
	if role == store.RoleOwner || !validRole(role) {
		writeBadRequest(w, fmt.Sprintf("role %q is not assignable", req.Role))
		return
	}

	memberID := r.PathValue("userID")
	if !ws.HasMember(memberID) {
		writeError(w, fmt.Errorf("%w: %s is not a member", store.ErrUserNotFound, memberID))
		return
	}

	perms := store.PermissionSet{Role: role, Capabilities: req.Capabilities}
	if len(perms.Capabilities) == 0 {
		perms = s.policy.DefaultPermissionSet(role)
	}

	if err := s.policy.Grant(r.Context(), s.store, ws, memberID, perms); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("updated member permissions", "workspace", ws.ID, "member", memberID, "role", role)
	writeJSON(w, http.StatusOK, memberView{
		User:        userView{ID: memberID},
		Role:        string(perms.Role),
		Permissions: perms.Capabilities,
	})
}

func validRole(role store.Role) bool {
	for _, r := range store.ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
