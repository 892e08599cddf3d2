// ABOUTME: Error taxonomy for authentication and authorization failures
// ABOUTME: Every failure is terminal for the request and mapped to a status-coded problem

package auth

import "errors"

// Authorization failures. All are value-returned at the boundary, never
// retried, and translated by the transport layer into problem responses.
var (
	// ErrMalformedSignature means the signature or public key could not be parsed.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrInvalidSignature means the recovered signer does not match the claimed address.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMissingCredentials means the request carried no credential at all.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredential means the presented token is unknown, revoked or unparseable.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionExpired means the session outlived its sliding window; a fresh
	// sign-in is required.
	ErrSessionExpired = errors.New("session expired")

	// ErrMissingPermission means the capability check failed for the active workspace.
	ErrMissingPermission = errors.New("missing permission")

	// ErrNotAuthorized means the caller acted on a resource outside their membership.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrOwnerImmutable means a grant targeted the workspace owner, whose
	// permissions cannot be modified.
	ErrOwnerImmutable = errors.New("owner permissions are immutable")
)
