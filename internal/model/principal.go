package model

// Principal is the authenticated identity attached to a request by
// the authentication middleware. It is derived from the current
// user record, not from the access token's claims, so a role change
// takes effect on the very next request. A Principal lives only for
// the duration of one request and is never persisted.
type Principal struct {
	UserID   string
	Username string
	Role     string
}
