// ABOUTME: Authentication endpoints: sign-in, sign-out, workspace switch
// ABOUTME: Sign-in verifies a wallet signature and provisions first-time users

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// signInRequest is the sign-in body. The signature covers the canonical
// serialization of every field except Signature and PublicKey.
type signInRequest struct {
	Address     string `json:"address"`
	UserID      string `json:"user_id,omitempty"`
	Encoder     string `json:"encoder"`
	Provider    string `json:"provider"`
	CreatedAt   string `json:"created_at"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key"`
}

type signInResponse struct {
	Token     string        `json:"token"`
	User      userView      `json:"user"`
	Workspace workspaceView `json:"workspace"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Address == "" || req.Signature == "" || req.PublicKey == "" || req.CreatedAt == "" {
		writeBadRequest(w, "address, signature, public_key and created_at are required")
		return
	}

	signedAt, err := time.Parse(time.RFC3339, req.CreatedAt)
	if err != nil {
		writeBadRequest(w, "created_at must be RFC3339")
		return
	}

	payload := &auth.SignInPayload{
		Address:     req.Address,
		UserID:      req.UserID,
		Encoder:     req.Encoder,
		Provider:    req.Provider,
		CreatedAt:   signedAt,
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
	}
	message, err := payload.CanonicalBytes()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.verifier.Verify(message, req.Signature, req.PublicKey, req.Address); err != nil {
		writeError(w, err)
		return
	}

	// A signature is single-use inside the acceptance window
	if s.guard.Seen(auth.ReplayKey(req.Address, req.Signature)) {
		writeError(w, fmt.Errorf("%w: signature already used", auth.ErrInvalidSignature))
		return
	}

	user, err := s.resolveOrProvisionUser(r.Context(), req.Address, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	ws, err := s.resolveSignInWorkspace(r.Context(), user.ID, req.WorkspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	session, token, err := s.manager.Issue(r.Context(), user.ID, ws.ID, signedAt)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("signed in", "user", user.ID, "session", session.ID, "workspace", ws.ID)
	writeJSON(w, http.StatusOK, signInResponse{
		Token:     token,
		User:      viewUser(user),
		Workspace: s.viewWorkspaceFor(ws, user.ID),
	})
}

// resolveOrProvisionUser loads the user behind a verified wallet address,
// creating the user and their single workspace on first sign-in. A lost
// provisioning race falls back to the winner's record.
func (s *Server) resolveOrProvisionUser(ctx context.Context, address, name string) (*store.User, error) {
	user, err := s.store.GetUserByAddress(ctx, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &store.User{
		ID:        uuid.NewString(),
		Address:   address,
		Name:      name,
		Notify:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAddressExists) {
			return s.store.GetUserByAddress(ctx, address)
		}
		return nil, err
	}

	single := &store.Workspace{
		ID:        uuid.NewString(),
		Name:      "Personal",
		Single:    true,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWorkspace(ctx, single); err != nil {
		return nil, fmt.Errorf("provisioning single workspace: %w", err)
	}

	s.logger.Info("provisioned user", "user", user.ID, "address", address)
	return user, nil
}

// resolveSignInWorkspace picks the session's starting workspace: the requested
// one if the user may enter it, otherwise the user's single workspace.
func (s *Server) resolveSignInWorkspace(ctx context.Context, userID, workspaceID string) (*store.Workspace, error) {
	if workspaceID == "" {
		return s.store.GetSingleWorkspace(ctx, userID)
	}

	ws, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, hasEntry := ws.Permissions[userID]; !hasEntry && !ws.HasMember(userID) {
		return nil, fmt.Errorf("%w: not a member of workspace %s", auth.ErrNotAuthorized, workspaceID)
	}
	return ws, nil
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	if err := s.manager.Invalidate(r.Context(), authCtx.Session); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("signed out", "user", authCtx.User.ID, "session", authCtx.Session.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type switchWorkspaceResponse struct {
	Token     string        `json:"token"`
	Workspace workspaceView `json:"workspace"`
}

func (s *Server) handleSwitchWorkspace(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	ws, err := s.manager.SwitchWorkspace(r.Context(), authCtx.Session, r.PathValue("id"), authCtx.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.manager.Credential(authCtx.Session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, switchWorkspaceResponse{
		Token:     token,
		Workspace: s.viewWorkspaceFor(ws, authCtx.User.ID),
	})
}
