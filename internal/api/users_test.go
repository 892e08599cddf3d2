// ABOUTME: Tests for the authenticated profile endpoint
// ABOUTME: Verifies profile fields and workspace enumeration

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	h := setupTestServer(t)
	wallet := newTestWallet(t)
	resp := h.signIn(t, wallet, "alice")

	rec := h.doJSON(t, http.MethodGet, "/api/user/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	me := decodeBody[meResponse](t, rec)
	assert.Equal(t, wallet.address, me.User.Address)
	assert.Equal(t, "alice", me.User.Name)
	assert.Equal(t, resp.Workspace.ID, me.Workspace.ID)
	require.Len(t, me.Workspaces, 1)
	assert.True(t, me.Workspaces[0].Single)
}

func TestMe_ListsSharedWorkspaces(t *testing.T) {
	h := setupTestServer(t)
	owner := newTestWallet(t)
	member := newTestWallet(t)

	ws, ownerToken := sharedWorkspace(t, h, owner)
	memberResp := h.signIn(t, member, "bob")

	rec := h.doJSON(t, http.MethodPost, "/api/workspace/"+ws.ID+"/members", ownerToken,
		map[string]string{"address": member.address})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.doJSON(t, http.MethodGet, "/api/user/me", memberResp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decodeBody[meResponse](t, rec)
	require.Len(t, me.Workspaces, 2)
}

func TestMe_Unauthenticated(t *testing.T) {
	h := setupTestServer(t)

	rec := h.doJSON(t, http.MethodGet, "/api/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
