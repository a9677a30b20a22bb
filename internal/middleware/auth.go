package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/web-storefront/internal/model"
	"github.com/iliyamo/web-storefront/internal/token"
)

// principalKey is the context key the authenticated principal is stored
// under. Handlers read it via Principal(c).
const principalKey = "principal"

// RevocationChecker answers whether an access token was blacklisted.
type RevocationChecker interface {
	Contains(ctx context.Context, rawToken string) bool
}

// PrincipalResolver resolves the current user record behind a username.
type PrincipalResolver interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Authenticate returns the per-request authentication gate. It runs before
// any authorization check and never terminates a request itself: every
// failure mode degrades to anonymous and the authorization middleware
// (RequireRole) decides whether anonymous is acceptable for the route.
//
// Order of checks, cheapest first:
//  1. no bearer credential        -> anonymous
//  2. token blacklisted           -> anonymous (explicitly dead, skip crypto)
//  3. codec rejects access token  -> anonymous (wrong type, bad signature, expired)
//  4. user behind the token gone  -> anonymous
//
// On success the principal is built from the CURRENT user record rather
// than the token's claims, so a role change is honored on the next request
// even while the old access token is still cryptographically valid.
// Requests whose path starts with one of skipPrefixes bypass the gate
// entirely.
func Authenticate(codec *token.Codec, revoked RevocationChecker, users PrincipalResolver, skipPrefixes []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range skipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			ctx := c.Request().Context()
			if revoked != nil && revoked.Contains(ctx, raw) {
				return next(c)
			}

			claims, err := codec.Validate(raw, token.TypeAccess)
			if err != nil {
				return next(c)
			}

			if c.Get(principalKey) != nil {
				return next(c)
			}
			u, err := users.GetByUsername(ctx, claims.Subject)
			if err != nil {
				// The account may have been deleted since the token was
				// minted; that is not this request's error to surface.
				return next(c)
			}
			c.Set(principalKey, model.Principal{UserID: u.ID, Username: u.Username, Role: u.Role})
			c.Set("user_id", u.ID)
			c.Set("username", u.Username)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// Principal returns the authenticated principal attached by Authenticate,
// or false when the request is anonymous.
func Principal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}
