// ABOUTME: Tests for canonical sign-in payload serialization
// ABOUTME: Determinism is what makes signature verification reproducible

package auth

import (
	"bytes"
	"testing"
	"time"
)

func TestSignInPayload_CanonicalBytes_Deterministic(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &SignInPayload{
		Address:   "addr-1",
		Encoder:   "fuel",
		Provider:  "https://mainnet.fuel.network",
		CreatedAt: at,
	}
	b := &SignInPayload{
		Provider:  "https://mainnet.fuel.network",
		CreatedAt: at,
		Encoder:   "fuel",
		Address:   "addr-1",
	}

	aBytes, err := a.CanonicalBytes()
	if err != nil {
		t.Fatalf("CanonicalBytes() error = %v", err)
	}
	bBytes, err := b.CanonicalBytes()
	if err != nil {
		t.Fatalf("CanonicalBytes() error = %v", err)
	}

	if !bytes.Equal(aBytes, bBytes) {
		t.Errorf("equal payloads produced different bytes:\n%s\n%s", aBytes, bBytes)
	}
}

func TestSignInPayload_CanonicalBytes_FieldSensitive(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	base := SignInPayload{
		Address:   "addr-1",
		Encoder:   "fuel",
		Provider:  "https://mainnet.fuel.network",
		CreatedAt: at,
	}

	baseBytes, err := base.CanonicalBytes()
	if err != nil {
		t.Fatalf("CanonicalBytes() error = %v", err)
	}

	variants := []SignInPayload{
		func() SignInPayload { p := base; p.Address = "addr-2"; return p }(),
		func() SignInPayload { p := base; p.CreatedAt = at.Add(time.Second); return p }(),
		func() SignInPayload { p := base; p.WorkspaceID = "ws-1"; return p }(),
		func() SignInPayload { p := base; p.UserID = "u-1"; return p }(),
	}

	for i, v := range variants {
		got, err := v.CanonicalBytes()
		if err != nil {
			t.Fatalf("variant %d: CanonicalBytes() error = %v", i, err)
		}
		if bytes.Equal(baseBytes, got) {
			t.Errorf("variant %d produced the same canonical bytes as base", i)
		}
	}
}

func TestSignInPayload_CanonicalBytes_TimezoneNormalized(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*3600))

	a := SignInPayload{Address: "addr", Encoder: "fuel", Provider: "p", CreatedAt: utc}
	b := SignInPayload{Address: "addr", Encoder: "fuel", Provider: "p", CreatedAt: est}

	aBytes, _ := a.CanonicalBytes()
	bBytes, _ := b.CanonicalBytes()
	if !bytes.Equal(aBytes, bBytes) {
		t.Error("same instant in different zones must serialize identically")
	}
}
