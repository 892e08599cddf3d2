// ABOUTME: Wallet signature verification for sign-in requests
// ABOUTME: Verifies SSH signatures over the canonical payload and checks the claimed address

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// WalletVerifier validates that a submitted signature over a canonical
// message was produced by the key behind the claimed wallet address. Pure;
// no side effects.
type WalletVerifier struct{}

// NewWalletVerifier creates a wallet signature verifier.
func NewWalletVerifier() *WalletVerifier {
	return &WalletVerifier{}
}

// Verify checks that signature (base64, SSH wire format) over message was
// produced by pubkey, and that pubkey's fingerprint equals claimedAddress.
// Parse failures return ErrMalformedSignature; a signer mismatch or failed
// verification returns ErrInvalidSignature.
func (v *WalletVerifier) Verify(message []byte, signature, pubkey, claimedAddress string) error {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pubkey))
	if err != nil {
		return fmt.Errorf("%w: parsing public key: %v", ErrMalformedSignature, err)
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: decoding signature: %v", ErrMalformedSignature, err)
	}

	sig := new(ssh.Signature)
	if err := ssh.Unmarshal(sigBytes, sig); err != nil {
		return fmt.Errorf("%w: parsing signature: %v", ErrMalformedSignature, err)
	}

	if AddressFromKey(key) != claimedAddress {
		return fmt.Errorf("%w: signer does not match claimed address", ErrInvalidSignature)
	}

	if err := key.Verify(message, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return nil
}

// AddressFromKey derives the wallet address of a public key: the SHA-256
// fingerprint of its wire encoding, lowercase hex without colons.
func AddressFromKey(key ssh.PublicKey) string {
	hash := sha256.Sum256(key.Marshal())
	return hex.EncodeToString(hash[:])
}

// AddressFromPublicKey parses a public key string and returns its wallet address.
func AddressFromPublicKey(pubkey string) (string, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pubkey))
	if err != nil {
		return "", fmt.Errorf("%w: parsing public key: %v", ErrMalformedSignature, err)
	}
	return AddressFromKey(key), nil
}

// ReplayKey derives the replay-guard key for an accepted sign-in signature.
// Scoping by address prevents cross-wallet collisions.
func ReplayKey(address, signature string) string {
	digest := sha256.Sum256([]byte(signature))
	return address + ":" + hex.EncodeToString(digest[:])
}
