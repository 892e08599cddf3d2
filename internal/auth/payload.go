// ABOUTME: Canonical serialization of the sign-in payload
// ABOUTME: Signature validity depends on byte-exact reproduction of what the wallet signed

package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// SignInPayload carries the fields a wallet signs to prove address ownership.
// Signature and public key ride alongside in the request but are never part
// of the signed message.
type SignInPayload struct {
	Address     string    `json:"address"`
	UserID      string    `json:"user_id,omitempty"`
	Encoder     string    `json:"encoder"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Name        string    `json:"name,omitempty"`
}

// CanonicalBytes returns the deterministic byte serialization of the payload.
// Fields are emitted as a JSON object with lexicographically sorted keys and
// an RFC 3339 UTC timestamp at nanosecond precision, so any client that
// follows the same rules reproduces the exact bytes regardless of field order
// in transit. Empty optional fields are omitted.
func (p *SignInPayload) CanonicalBytes() ([]byte, error) {
	fields := map[string]string{
		"address":    p.Address,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"encoder":    p.Encoder,
		"provider":   p.Provider,
	}
	if p.UserID != "" {
		fields["user_id"] = p.UserID
	}
	if p.WorkspaceID != "" {
		fields["workspace_id"] = p.WorkspaceID
	}
	if p.Name != "" {
		fields["name"] = p.Name
	}

	// encoding/json marshals map keys in sorted order, which is exactly the
	// determinism the signature scheme needs.
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding canonical payload: %w", err)
	}
	return data, nil
}
