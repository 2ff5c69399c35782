// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"ledger/config"
	"ledger/internal/delivery/api/middleware"
	"ledger/internal/delivery/api/router/handler"
	"ledger/trust"
	"ledger/trust/echoguard"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

type RouterParams struct {
	fx.In

	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	OAuth2Middleware *middleware.OAuth2Middleware
	Guard            *trust.Guard
	Config           *config.Config `optional:"true"`
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	oauth2Middleware *middleware.OAuth2Middleware
	guard            *trust.Guard
	config           *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:      params.AuthHandler,
		userHandler:      params.UserHandler,
		oauth2Middleware: params.OAuth2Middleware,
		guard:            params.Guard,
		config:           params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// Public auth routes
	authGroup := e.Group("/auth")
	if limit := r.authRateLimit(); limit > 0 {
		authGroup.Use(echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(limit)))
	}
	{
		authGroup.GET("/health", handler.HealthCheck)
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/validate", r.authHandler.Validate)
	}

	// OAuth2 redirect targets
	oauth2Group := e.Group("/oauth2")
	{
		oauth2Group.GET("/success", r.authHandler.OAuth2Success, r.oauth2Middleware.Process)
		oauth2Group.POST("/success", r.authHandler.OAuth2Success, r.oauth2Middleware.Process)
		oauth2Group.GET("/failure", r.authHandler.OAuth2Failure)
	}

	// Identity administration, authorized per route
	userGroup := e.Group("/users")
	userGroup.Use(echoguard.Authenticate(r.guard, echoguard.WithErrorHandler(passToErrorHandler)))
	{
		userGroup.GET("", r.userHandler.ListActive)
		userGroup.GET("/me", r.userHandler.GetMe)
		userGroup.GET("/email/:email", r.userHandler.GetByEmail)
		userGroup.GET("/:userId", r.userHandler.GetByID)
		userGroup.PUT("/:userId", r.userHandler.UpdateProfile)
		userGroup.DELETE("/:userId", r.userHandler.Delete)
		userGroup.PUT("/:userId/activate", r.userHandler.Activate)
		userGroup.PUT("/:userId/deactivate", r.userHandler.Deactivate)
		userGroup.PUT("/:userId/role", r.userHandler.ChangeRole)
	}
}

func (r *router) authRateLimit() rate.Limit {
	if r.config == nil {
		return 0
	}

	return rate.Limit(r.config.HTTP.AuthRateLimit)
}

// passToErrorHandler leaves authentication failures to the central error
// handler so they share the API error body.
func passToErrorHandler(_ echo.Context, err error) error {
	return err
}
