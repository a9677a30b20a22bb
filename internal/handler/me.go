package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/web-storefront/internal/middleware"
)

// Me returns the authenticated principal. It sits behind the USER role
// guard, which makes it the simplest probe for whether a given access
// token is still honored.
func Me(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		// RequireRole rejects anonymous requests before this runs.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  p.UserID,
		"username": p.Username,
		"role":     p.Role,
	})
}
