package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/fire-safety-monitor/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token-issuing endpoints.  None of them carry
// the JWT middleware: they are how a client obtains a token in the first
// place, or asks about one it already holds.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	// Register a new account and receive an access+refresh pair right away.
	e.POST("/register", a.Register)
	// Exchange email+password for a fresh token pair.
	e.POST("/token", a.Login)
	// Exchange a valid refresh token for a fresh pair.  The presented token
	// must carry type=refresh; access tokens are rejected here.
	e.POST("/refresh-token", a.Refresh)
	// Probe a token: returns {"valid": true|false} and the subject identity
	// when valid.  Intended for other services, never gates anything itself.
	e.POST("/validate-token", a.Validate)
}
