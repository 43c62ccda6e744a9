// Package router wires HTTP routes to their handlers and guards.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/token"
)

// RegisterRoutes registers routes that carry no authentication at all: the
// health check and the public key discovery document.
func RegisterRoutes(e *echo.Echo, kp *keys.Provider, jwksPath string) {
	e.GET("/healthz", handler.Health)
	e.GET(jwksPath, handler.JWKS(kp))
}

// RegisterAuth registers the credential endpoints. Register and login are
// unauthenticated but rate limited; self requires a valid access token;
// refresh and logout are guarded by the refresh token itself.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, svc *token.Service, kp *keys.Provider, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.GET("/self", a.Self, middleware.Authenticate(kp))
	g.POST("/refresh", a.Refresh, middleware.ValidateRefresh(svc))
	g.POST("/logout", a.Logout, middleware.ValidateRefresh(svc))
}

// RegisterUsers registers user management, admin-only end to end.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, kp *keys.Provider) {
	g := e.Group("/users")
	g.Use(middleware.Authenticate(kp))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.POST("", h.Create)
	g.GET("", h.GetAll)
	g.GET("/:id", h.GetOne)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Destroy)
}

// RegisterTenants registers tenant management. Reads need only a valid
// session; writes additionally require the admin role.
func RegisterTenants(e *echo.Echo, h *handler.TenantHandler, kp *keys.Provider) {
	g := e.Group("/tenants")
	g.Use(middleware.Authenticate(kp))
	g.GET("", h.GetAll)
	g.GET("/:id", h.GetOne)

	admin := middleware.RequireRole(model.RoleAdmin)
	g.POST("", h.Create, admin)
	g.PATCH("/:id", h.Update, admin)
	g.DELETE("/:id", h.Destroy, admin)
}
