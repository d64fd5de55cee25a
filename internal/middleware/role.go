package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

// RequireRole restricts a route to identities whose role is in the allowed
// set.  It must run after Protect: a request with no resolved identity is
// rejected the same way as one with the wrong role.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !allowed[u.Role] {
				return apperr.Forbidden("You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
