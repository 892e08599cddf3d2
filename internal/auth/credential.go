// ABOUTME: Credential codec turning session ids into bearer tokens and back
// ABOUTME: Uses HS256 signed JWTs; session validity stays server-side in the store

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialCodec encodes session ids as HS256 signed JWTs. The token carries
// no expiry claim; the session record owns the sliding expiry and revocation
// state, so a decoded id is only a lookup key.
type CredentialCodec struct {
	secret []byte
}

// NewCredentialCodec creates a codec with the given signing secret.
func NewCredentialCodec(secret []byte) *CredentialCodec {
	return &CredentialCodec{secret: secret}
}

// Encode produces the bearer credential for a session id.
func (c *CredentialCodec) Encode(sessionID string, issuedAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// Decode parses a credential and extracts the session id from the "sub"
// claim. Any parse or signature failure returns ErrInvalidCredential.
func (c *CredentialCodec) Decode(credential string) (string, error) {
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return "", ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredential
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidCredential)
	}

	return sub, nil
}

// IsAuthFailure reports whether err belongs to the authentication taxonomy,
// as opposed to a storage or internal failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMalformedSignature) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrSessionExpired)
}
