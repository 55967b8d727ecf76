package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crowdsafe/internal/handler"
	"github.com/iliyamo/crowdsafe/internal/middleware"
)

// RegisterMonitor registers the event monitoring API under /v1/events/:id.
// Everything requires a valid JWT.  Gate scanners may check attendees in and
// out, read capacities, report incidents and missing persons, and read the
// evacuation picture; the rest is organizer-only.
// limit wraps the check-in/out routes and cache wraps the alert history.
func RegisterMonitor(e *echo.Echo, h *handler.MonitorHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/events/:id", middleware.JWTAuth(jwtSecret))

	scanner := g.Group("", middleware.RequireRole(middleware.RoleScanner, middleware.RoleOrganizer))
	scanner.POST("/checkin", h.CheckIn, limit)
	scanner.POST("/checkout", h.CheckOut, limit)
	scanner.GET("/zones/capacity", h.ZoneCapacities)
	scanner.POST("/incidents", h.ReportIncident)
	scanner.GET("/incidents/:incident_id", h.GetIncident)
	scanner.GET("/restricted-areas", h.ListRestrictedAreas)
	scanner.GET("/evacuation", h.Evacuation)
	scanner.POST("/missing", h.ReportMissing)

	org := g.Group("", middleware.RequireRole(middleware.RoleOrganizer))
	org.POST("/zones", h.CreateZone)
	org.GET("/zones/:zone_id/trace", h.ContactTrace)
	org.POST("/attendees", h.RegisterAttendee)
	org.POST("/notify", h.NotifyContacts)
	org.GET("/alerts", h.ListAlerts, cache)
	org.GET("/contacts", h.ListContacts)
	org.POST("/contacts", h.CreateContact)
	org.POST("/contacts/:contact_id/toggle", h.ToggleContact)
	org.GET("/incidents", h.ListIncidents)
	org.POST("/incidents/:incident_id/status", h.UpdateIncidentStatus)
	org.POST("/restricted-areas", h.CreateRestrictedArea)
	org.GET("/missing", h.ListMissing)
	org.POST("/missing/:person_id/status", h.UpdateMissingStatus)
	org.POST("/end", h.EndEvent)
}
