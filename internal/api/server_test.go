// ABOUTME: Shared test harness for API handler tests
// ABOUTME: Real in-memory store, real signature wallets, captured notifications

package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/petertonysmith94/bako-safe-api/internal/auth"
	"github.com/petertonysmith94/bako-safe-api/internal/notify"
	"github.com/petertonysmith94/bako-safe-api/internal/replay"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// captureMailer records sent notifications for assertions.
type captureMailer struct {
	sent []notify.Message
}

func (m *captureMailer) Send(ctx context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type testHarness struct {
	store   *store.SQLiteStore
	server  *Server
	handler http.Handler
	mailer  *captureMailer
}

func setupTestServer(t *testing.T) *testHarness {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	guard := replay.New(10*time.Minute, 1024)
	t.Cleanup(guard.Close)

	manager := auth.NewManager(st, st, auth.NewCredentialCodec([]byte("test-secret")), 15*time.Minute, 5*time.Minute)
	mailer := &captureMailer{}
	server := NewServer(st, manager, auth.NewPolicy(), guard, notify.NewNotifier(mailer))

	return &testHarness{
		store:   st,
		server:  server,
		handler: server.Routes(),
		mailer:  mailer,
	}
}

// testWallet is a signing identity for exercising the sign-in flow.
type testWallet struct {
	signer  ssh.Signer
	pubkey  string
	address string
}

func newTestWallet(t *testing.T) *testWallet {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	return &testWallet{
		signer:  signer,
		pubkey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))),
		address: auth.AddressFromKey(signer.PublicKey()),
	}
}

// signInBody builds a signed sign-in request body for the wallet.
func (w *testWallet) signInBody(t *testing.T, name, workspaceID string) map[string]string {
	t.Helper()

	createdAt := time.Now().UTC()
	payload := &auth.SignInPayload{
		Address:     w.address,
		Encoder:     "fuel",
		Provider:    "https://mainnet.fuel.network",
		CreatedAt:   createdAt,
		WorkspaceID: workspaceID,
		Name:        name,
	}
	message, err := payload.CanonicalBytes()
	require.NoError(t, err)

	sig, err := w.signer.Sign(rand.Reader, message)
	require.NoError(t, err)

	body := map[string]string{
		"address":    w.address,
		"encoder":    "fuel",
		"provider":   "https://mainnet.fuel.network",
		"created_at": createdAt.Format(time.RFC3339Nano),
		"signature":  encodeSignature(sig),
		"public_key": w.pubkey,
	}
	if name != "" {
		body["name"] = name
	}
	if workspaceID != "" {
		body["workspace_id"] = workspaceID
	}
	return body
}

func encodeSignature(sig *ssh.Signature) string {
	return base64.StdEncoding.EncodeToString(ssh.Marshal(sig))
}

// doJSON performs a request with an optional JSON body and bearer token.
func (h *testHarness) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// signIn runs the full sign-in flow and returns the parsed response.
func (h *testHarness) signIn(t *testing.T, wallet *testWallet, name string) signInResponse {
	t.Helper()

	rec := h.doJSON(t, http.MethodPost, "/api/auth/sign-in", "", wallet.signInBody(t, name, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp signInResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
