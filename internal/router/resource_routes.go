package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/handler"
	"github.com/iliyamo/fire-safety-monitor/internal/middleware"
)

// RegisterResources wires every entity route onto the Echo instance.
//
// Read endpoints are open so dashboards and public status pages can browse
// buildings, sensors and incidents without a token.  Mutations on owned
// resources (buildings, sensors, incident reporting, account deletion) sit
// behind the JWT middleware so the handlers can consult the caller identity.
//
// cache may be nil; when present it is applied to the public list/detail
// GETs so repeated browse traffic is served from Redis.
func RegisterResources(
	e *echo.Echo,
	users *handler.UserHandler,
	buildings *handler.BuildingHandler,
	sensors *handler.SensorHandler,
	incidents *handler.IncidentHandler,
	secret string,
	source middleware.UserSource,
	cache echo.MiddlewareFunc,
) {
	auth := middleware.JWTAuth(secret, source) // shared guard for protected routes

	cached := func(h echo.HandlerFunc) (echo.HandlerFunc, []echo.MiddlewareFunc) {
		if cache == nil {
			return h, nil
		}
		return h, []echo.MiddlewareFunc{cache}
	}

	// Users.  Registration via POST /users mirrors /register but without
	// issuing tokens; reads and profile updates are open, deletion requires
	// the caller to be the account owner or an administrator.
	e.POST("/users", users.Create)
	e.GET("/users", users.List)
	e.GET("/users/:id", users.Get)
	e.PUT("/users/:id", users.Update)
	e.DELETE("/users/:id", users.Delete, auth)

	// Buildings.  Anyone may browse; creating claims ownership for the
	// caller, and only the owner or an admin may change or remove one.
	h, mws := cached(buildings.List)
	e.GET("/buildings", h, mws...)
	h, mws = cached(buildings.Get)
	e.GET("/buildings/:id", h, mws...)
	e.POST("/buildings", buildings.Create, auth)
	e.PUT("/buildings/:id", buildings.Update, auth)
	e.DELETE("/buildings/:id", buildings.Delete, auth)

	// Sensors.  Authorization follows the parent building's owner.
	h, mws = cached(sensors.List)
	e.GET("/sensors", h, mws...)
	h, mws = cached(sensors.Get)
	e.GET("/sensors/:id", h, mws...)
	e.POST("/sensors", sensors.Create, auth)
	e.PUT("/sensors/:id", sensors.Update, auth)
	e.DELETE("/sensors/:id", sensors.Delete, auth)

	// Incidents.  Reporting requires a token; resolution updates and
	// deletion are open so external alarm bridges can clear events.
	h, mws = cached(incidents.List)
	e.GET("/incidents", h, mws...)
	h, mws = cached(incidents.Get)
	e.GET("/incidents/:id", h, mws...)
	e.POST("/incidents", incidents.Create, auth)
	e.PATCH("/incidents/:id", incidents.Patch)
	e.DELETE("/incidents/:id", incidents.Delete)
}
