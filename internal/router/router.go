package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/web-storefront/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/web-storefront/internal/middleware" // import middleware for authentication and role enforcement
	"github.com/iliyamo/web-storefront/internal/model"
)

// SkipAuthPrefixes are the path prefixes the authentication gate bypasses
// entirely: credential endpoints mint tokens rather than consume them, and
// the health probe must answer without any auth machinery.
var SkipAuthPrefixes = []string{"/v1/auth", "/healthz"}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The health endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token lifecycle endpoints and the protected
// probe routes.  Unauthenticated operations live under /v1/auth; the
// limiter guards them against credential brute force.  Protected endpoints
// live under /v1 behind the role guard.  The Authenticate gate itself is
// installed globally in main and only ever degrades to anonymous, so the
// role guard is where anonymous requests are actually rejected.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token; the old one is single-use.
	g.POST("/refresh", a.Refresh)
	// Logout revokes the refresh record and blacklists a surrendered access
	// token for its remaining lifetime.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleSeller, model.RoleAdmin))
	auth.GET("/me", handler.Me)
}
