// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/eventease/eventease/internal/handler"
	"github.com/eventease/eventease/internal/middleware"
	"github.com/eventease/eventease/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works with either a bearer token or a refresh token in the
	// body, so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/events", p.ListEvents)
	e.GET("/v1/events/:id", p.GetEvent)
	e.GET("/v1/events/:id/availability", p.Availability)
}

// RegisterBooking registers the booking endpoints. Any authenticated user
// may book; cancellation authorization (owner or admin) is enforced by the
// engine, not the route.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	g.POST("/events/:id/bookings", b.Reserve)
	g.DELETE("/bookings/:id", b.Cancel)
	g.GET("/bookings/:id", b.GetBooking)
	g.GET("/my-bookings", b.MyBookings)
}

// RegisterAdmin registers the event management endpoints, restricted to
// the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("/events", a.CreateEvent)
	g.PATCH("/events/:id", a.UpdateEvent)
	g.PUT("/events/:id/capacity", a.AdjustCapacity)
	g.DELETE("/events/:id", a.DeleteEvent)
	g.GET("/events/:id/bookings", a.ListEventBookings)
}
