package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/authz"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// identityKey is the context key under which the resolved identity is
// stored for handlers.
const identityKey = "identity"

// JWTAuth returns middleware that validates a Bearer access token and
// resolves the caller's identity. The token's subject is only a user
// id; the user record, including the role, is re-read from the users
// table on every request so a stale or tampered role claim never
// grants anything. A token whose subject no longer resolves is
// rejected the same way as an invalid token.
func JWTAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthenticated(c, "not authorized to access this route")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return unauthenticated(c, "not authorized to access this route")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthenticated(c, "invalid token format")
			}
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return unauthenticated(c, "invalid token format")
			}

			u, err := users.GetByID(c.Request().Context(), uint64(sub))
			if err != nil {
				return unauthenticated(c, "user not found or token is no longer valid")
			}
			c.Set(identityKey, &authz.Identity{ID: u.ID, Role: u.Role})
			c.Set("user", u)
			return next(c)
		}
	}
}

func unauthenticated(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}

// CurrentIdentity returns the identity resolved by JWTAuth, or nil on
// unauthenticated (public) routes.
func CurrentIdentity(c echo.Context) *authz.Identity {
	id, _ := c.Get(identityKey).(*authz.Identity)
	return id
}

// CurrentUser returns the full user record loaded by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}
