package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/evenzo/event-booking/internal/config"
	"github.com/evenzo/event-booking/internal/handler"
	"github.com/evenzo/event-booking/internal/middleware"
	"github.com/evenzo/event-booking/internal/model"
)

// Handlers bundles everything the router needs to wire routes.
type Handlers struct {
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Bookings *handler.BookingHandler
	Tickets  *handler.TicketHandler
}

// RegisterRoutes registers the infrastructure endpoints that carry no
// authentication: the health check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// listing and detail routes sit behind the Redis response cache and a
// per-IP token bucket; both middlewares degrade to passthrough when
// Redis is unavailable.
func RegisterPublic(e *echo.Echo, h Handlers, rdb *redis.Client) {
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	g := e.Group("/v1/events")
	g.Use(middleware.NewTokenBucket(rlCfg, rdb))
	g.Use(middleware.NewRedisCache(cacheCfg, rdb))
	g.GET("", h.Events.ListPublic)
	g.GET("/:id", h.Events.GetPublic)
}

// RegisterAuth registers the /v1/auth session endpoints.  None of
// them require an existing session; logout takes the refresh token in
// the request body.
func RegisterAuth(e *echo.Echo, h Handlers) {
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/refresh-access", h.Auth.RefreshAccess)
	g.POST("/logout", h.Auth.Logout)
}

// RegisterProtected registers every endpoint that requires a valid
// access token.  Role enforcement happens once here, at the route
// boundary; the handlers below the middleware only check resource
// ownership, never the caller's role.
func RegisterProtected(e *echo.Echo, h Handlers, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	anyRole := middleware.RequireRole(model.RoleAttendee, model.RoleOrganizer, model.RoleAdmin)
	organizer := middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin)

	auth.GET("/me", h.Auth.Me, anyRole)

	// Booking transaction surface.
	auth.POST("/bookings", h.Bookings.Create, anyRole)
	auth.GET("/bookings", h.Bookings.ListMine, anyRole)
	auth.GET("/bookings/:id", h.Bookings.Get, anyRole)
	auth.POST("/bookings/:id/cancel", h.Bookings.Cancel, anyRole)

	// Issued tickets.
	auth.GET("/tickets", h.Tickets.ListMine, anyRole)
	auth.GET("/tickets/:id", h.Tickets.Get, anyRole)

	// Organizer event management.  The /mine route must be registered
	// before Echo would otherwise match it as an :id parameter.
	auth.GET("/events/mine", h.Events.ListMine, organizer)
	auth.POST("/events", h.Events.Create, organizer)
	auth.PUT("/events/:id", h.Events.Update, organizer)
	auth.DELETE("/events/:id", h.Events.Delete, organizer)

	// Per-event booking roster: organizers for their own events,
	// admins for any.  Ownership is checked in the handler.
	auth.GET("/events/:id/bookings", h.Events.ListBookings, organizer)
}
