package router

import (
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/handler"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// RegisterOrders registers the parts-order endpoints under
// /api/v1/orders. All endpoints require authentication; clients see
// and manage their own orders, admins everything. The by-user listing
// is an admin back-office view.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group("/api/v1/orders")
	g.Use(middleware.JWTAuth(jwtSecret, users))
	g.POST("", o.Create)
	g.GET("", o.List)
	g.GET("/:id", o.Get)
	g.PUT("/:id", o.Update)
	g.DELETE("/:id", o.Delete)

	admin := g.Group("")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/user/:userId", o.ByUser)
}
