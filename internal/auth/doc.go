// Package auth provides signature-based authentication and workspace
// authorization for bako-safe-api.
//
// # Sign-in
//
// Users prove ownership of a wallet address instead of presenting a
// password. The client signs the canonical serialization of the sign-in
// payload (SignInPayload.CanonicalBytes) with its key; WalletVerifier checks
// the signature and that the key's fingerprint matches the claimed address.
// Accepted signatures are recorded in a replay guard so a captured request
// cannot be submitted twice.
//
// # Sessions
//
// Manager owns the session lifecycle:
//
//   - Issue: expiry = signing time + TTL; any prior live session for the user
//     is revoked in the same store transaction (one live session per user)
//   - Recover: bearer credential -> session id -> record; revoked or unknown
//     credentials fail with ErrInvalidCredential
//   - Renew: sliding window, extended from current time on every
//     authenticated request; expiry is checked before extension
//   - SwitchWorkspace: fails closed with ErrNotAuthorized when the caller is
//     neither a member of the target nor holds a permissions entry for it
//
// The bearer credential is an HS256 JWT carrying only the session id; all
// validity state lives in the session record.
//
// # Permissions
//
// Two layers: fixed role defaults (owner, admin, manager, viewer) and
// per-member overrides stored in the workspace permission map. The workspace
// owner always holds the wildcard; a bare member without a permissions entry
// holds nothing. Policy evaluates effective capabilities and Satisfies
// checks them against an endpoint's required set.
//
// # Middleware
//
// Authenticate resolves the credential, renews the session and attaches an
// AuthContext (user, session, active workspace) via WithAuth/FromContext.
// RequirePermissions enforces a required capability set on top of it.
// Failures are terminal, never retried, and rendered as {type, title,
// detail} problem JSON.
package auth
