// Package service implements the session lifecycle: login, refresh-token
// rotation, logout and the supporting ledger and blacklist stores.
package service

import "errors"

// Typed auth failures surfaced to handlers. Each carries a stable numeric
// code (see Code) so clients can branch on machine-readable values instead
// of message strings. Per-request auth outcomes are always returned as
// errors, never panics.
var (
	// ErrUnauthenticated covers bad credentials at login: unknown
	// identifier or password mismatch. The two cases are deliberately
	// indistinguishable to the caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken covers malformed, wrong-type or bad-signature
	// tokens presented to refresh or logout, and refresh tokens with no
	// matching ledger record.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenExpired covers a well-formed refresh token whose ledger
	// record was found but is revoked or past expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrUserNotFound is returned by principal resolution when the user
	// behind a token no longer exists. The authentication gate recovers
	// it locally as anonymous; it never reaches a response.
	ErrUserNotFound = errors.New("user not found")

	// Registration failures.
	ErrUsernameExists   = errors.New("username existed")
	ErrEmailExists      = errors.New("email existed")
	ErrPasswordMismatch = errors.New("password and confirm password do not match")
)

// Code returns the stable machine-readable code for an auth error, or 0
// when the error is not part of the taxonomy.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return 1001
	case errors.Is(err, ErrUsernameExists):
		return 1008
	case errors.Is(err, ErrEmailExists):
		return 1009
	case errors.Is(err, ErrPasswordMismatch):
		return 1010
	case errors.Is(err, ErrInvalidToken):
		return 1012
	case errors.Is(err, ErrTokenExpired):
		return 1013
	case errors.Is(err, ErrUserNotFound):
		return 1003
	}
	return 0
}
