// Package api exposes the HTTP JSON API.
//
// # Routes
//
// Sign-in is the only unauthenticated endpoint. Every other route passes
// through the bearer-credential middleware, which renews the session's
// sliding expiry on each request. Vault routes additionally require the
// relevant capability in the session's active workspace.
//
//	POST   /api/auth/sign-in
//	POST   /api/auth/sign-out
//	PUT    /api/auth/workspace/{id}
//	GET    /api/user/me
//	POST   /api/workspace
//	GET    /api/workspace
//	GET    /api/workspace/{id}
//	POST   /api/workspace/{id}/members
//	DELETE /api/workspace/{id}/members/{userID}
//	PUT    /api/workspace/{id}/members/{userID}/permissions
//	POST   /api/predicate
//	GET    /api/predicate
//	GET    /api/predicate/{id}
//
// # Errors
//
// Failures are reported as problem JSON:
//
//	{"type": "missing_permission", "title": "Missing permission", "detail": "..."}
//
// Authentication failures map to 401, authorization failures to 403,
// missing resources to 404, uniqueness violations to 409, and anything
// unrecognized to an opaque 500.
package api
