// ABOUTME: Tests for workspace creation, membership and permission endpoints
// ABOUTME: Covers manage gating, owner immutability and notification dispatch

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sharedWorkspace signs in an owner, creates a shared workspace and returns
// its view alongside the owner's token.
func sharedWorkspace(t *testing.T, h *testHarness, owner *testWallet) (workspaceView, string) {
	t.Helper()

	resp := h.signIn(t, owner, "alice")
	rec := h.doJSON(t, http.MethodPost, "/api/workspace", resp.Token,
		map[string]string{"name": "Infra Squad"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[workspaceView](t, rec), resp.Token
}

func TestCreateWorkspace(t *testing.T) {
	h := setupTestServer(t)
	ws, _ := sharedWorkspace(t, h, newTestWallet(t))

	assert.Equal(t, "Infra Squad", ws.Name)
	assert.False(t, ws.Single)
	assert.Equal(t, "owner", ws.Role)
	assert.Contains(t, ws.Permissions, "*")
}

func TestCreateWorkspace_RequiresName(t *testing.T) {
	h := setupTestServer(t)
	resp := h.signIn(t, newTestWallet(t), "alice")

	rec := h.doJSON(t, http.MethodPost, "/api/workspace", resp.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWorkspaces(t *testing.T) {
	h := setupTestServer(t)
	owner := newTestWallet(t)
	_, token := sharedWorkspace(t, h, owner)

	rec := h.doJSON(t, http.MethodGet, "/api/workspace", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	views := decodeBody[[]workspaceView](t, rec)
	// Single workspace from provisioning plus the shared one
	require.Len(t, views, 2)
}

func TestGetWorkspace_MemberGated(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	rec := h.doJSON(t, http.MethodGet, "/api/workspace/"+ws.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	outsider := h.signIn(t, newTestWallet(t), "mallory")
	rec = h.doJSON(t, http.MethodGet, "/api/workspace/"+ws.ID, outsider.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddMember_AssignsViewerDefaultsAndNotifies(t *testing.T) {
	h := setupTestServer(t)
	member := newTestWallet(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	// The invitee has signed in before, so their notify preference is on
	h.signIn(t, member, "bob")

	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": member.address})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decodeBody[memberView](t, rec)
	assert.Equal(t, "viewer", view.Role)
	assert.Contains(t, view.Permissions, "vault:read")
	assert.NotContains(t, view.Permissions, "*")

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, member.address, h.mailer.sent[0].To)
	assert.Contains(t, h.mailer.sent[0].Subject, "Infra Squad")
}

func TestAddMember_ProvisionsUnknownAddress(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))
	invitee := newTestWallet(t)

	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": invitee.address, "role": "manager"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decodeBody[memberView](t, rec)
	assert.Equal(t, "manager", view.Role)
	assert.Equal(t, invitee.address, view.User.Address)

	// The invitee can later sign in and lands in their own single workspace
	resp := h.signIn(t, invitee, "bob")
	assert.True(t, resp.Workspace.Single)
}

func TestAddMember_RejectsOwnerRole(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": newTestWallet(t).address, "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddMember_DuplicateConflicts(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))
	member := newTestWallet(t)

	body := map[string]string{"address": member.address}
	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddMember_RequiresManageCapability(t *testing.T) {
	h := setupTestServer(t)
	member := newTestWallet(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	memberResp := h.signIn(t, member, "bob")
	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": member.address})
	require.Equal(t, http.StatusCreated, rec.Code)

	// A viewer member cannot invite others
	rec = h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", memberResp.Token,
		map[string]string{"address": newTestWallet(t).address})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "missing_permission", decodeBody[problem](t, rec).Type)
}

func TestRemoveMember(t *testing.T) {
	h := setupTestServer(t)
	member := newTestWallet(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	memberResp := h.signIn(t, member, "bob")
	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": member.address})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.doJSON(t, http.MethodDelete, "/api/workspace/"+ws.ID+"/members/"+memberResp.User.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The removed member can no longer switch in
	rec = h.doJSON(t, http.MethodPut, "/api/auth/workspace/"+ws.ID, memberResp.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRemoveMember_OwnerForbidden(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	rec := h.doJSON(t, http.MethodDelete, "/api/workspace/"+ws.ID+"/members/"+ws.OwnerID, token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "owner_immutable", decodeBody[problem](t, rec).Type)
}

func TestSetMemberPermissions(t *testing.T) {
	h := setupTestServer(t)
	member := newTestWallet(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	memberResp := h.signIn(t, member, "bob")
	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", token,
		map[string]string{"address": member.address})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.doJSON(t, http.MethodPut,
		"/api/workspace/"+ws.ID+"/members/"+memberResp.User.ID+"/permissions", token,
		map[string]any{"role": "manager"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decodeBody[memberView](t, rec)
	assert.Equal(t, "manager", view.Role)
	assert.Contains(t, view.Permissions, "vault:create")
}

func TestSetMemberPermissions_OwnerImmutable(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	rec := h.doJSON(t, http.MethodPut,
		"/api/workspace/"+ws.ID+"/members/"+ws.OwnerID+"/permissions", token,
		map[string]any{"role": "viewer"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "owner_immutable", decodeBody[problem](t, rec).Type)
}

func TestSetMemberPermissions_NonMember(t *testing.T) {
	h := setupTestServer(t)
	ws, token := sharedWorkspace(t, h, newTestWallet(t))

	rec := h.doJSON(t, http.MethodPut,
		"/api/workspace/"+ws.ID+"/members/nobody/permissions", token,
		map[string]any{"role": "viewer"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
