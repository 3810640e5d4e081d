package router

import (
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/handler"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// RegisterServices registers the catalog endpoints under
// /api/v1/services. Browsing is public; creating and modifying
// listings requires authentication, with ownership enforced by the
// policy engine inside the handlers. The nested bookings route lets a
// provider review demand for one of their listings.
func RegisterServices(e *echo.Echo, s *handler.ServiceHandler, b *handler.BookingHandler, jwtSecret string, users *repository.UserRepo) {
	g := e.Group("/api/v1/services")
	g.GET("", s.List)
	g.GET("/:id", s.Get)
	g.GET("/user/:userId", s.ByUser)

	auth := g.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret, users))
	auth.POST("", s.Create)
	auth.PUT("/:id", s.Update)
	auth.DELETE("/:id", s.Delete)

	owner := g.Group("")
	owner.Use(middleware.JWTAuth(jwtSecret, users))
	owner.Use(middleware.RequireRole(model.RoleServiceUser, model.RoleAdmin))
	owner.GET("/:serviceId/bookings", b.ByService)
}
