package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware enforcing that the identity resolved
// by JWTAuth holds one of the given roles. Roles compare
// case-sensitively (CLIENT, SERVICE_USER, ADMIN). Route-level role
// gates are the coarse filter; per-resource ownership rules live in
// the authz package.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := CurrentIdentity(c)
			if id == nil {
				return unauthenticated(c, "not authorized to access this route")
			}
			if !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "user role " + id.Role + " is not authorized to access this route",
				})
			}
			return next(c)
		}
	}
}
