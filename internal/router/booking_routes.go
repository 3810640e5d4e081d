package router

import (
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/handler"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// RegisterBookings registers the booking lifecycle under
// /api/v1/bookings. Every endpoint requires authentication; what each
// role may see or change is decided per booking by the policy engine,
// and list results are scoped to the caller.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group("/api/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret, users))
	g.POST("", b.Create)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
	g.PUT("/:id", b.Update)
	g.PATCH("/:id/status", b.UpdateStatus)
	g.DELETE("/:id", b.Delete)

	admin := g.Group("")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/user/:userId", b.ByUser)
}
