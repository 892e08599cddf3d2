// Package replay tracks recently accepted sign-in signatures so a captured
// credential cannot be submitted twice within the acceptance window.
//
// The guard is a TTL'd, size-bounded set with atomic check-and-record
// semantics. Keys are derived by the auth package from the signer address,
// the asserted signing time and a digest of the signature bytes, so a replay
// of one key never collides with legitimate sign-ins by other wallets.
package replay
