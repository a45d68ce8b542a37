package common

// AuthCookieName is the cookie carrying the signed session token.
const AuthCookieName = "auth-token"

// Identity headers attached to requests that passed the session guard.
// Values sent by clients under these names are discarded first.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
	HeaderUsername = "X-Username"
)
