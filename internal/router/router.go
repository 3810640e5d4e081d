// Package router defines how HTTP routes are registered for the API.
// Each resource area gets its own Register function so main can wire
// exactly what it constructed.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/handler"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers the auth and profile endpoints under
// /api/v1/users. Register, login, refresh and logout are public; the
// profile endpoints require a valid access token, and the user list
// is admin-only.
func RegisterUsers(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group("/api/v1/users")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; the old one is revoked.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := g.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret, users))
	auth.GET("/me", a.Me)
	auth.PUT("/me", a.UpdateProfile)
	auth.PUT("/me/password", a.UpdatePassword)

	admin := g.Group("")
	admin.Use(middleware.JWTAuth(jwtSecret, users))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("", a.ListUsers)
}
