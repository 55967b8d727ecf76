package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crowdsafe/internal/handler"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/iliyamo/crowdsafe/internal/realtime"
)

// RegisterRoutes registers the unauthenticated endpoints: health, metrics
// and the SockJS realtime transport.  realtimeHandler may be nil in tests.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, realtimeHandler http.Handler) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	if realtimeHandler != nil {
		e.Any(realtime.Prefix+"/*", echo.WrapHandler(realtimeHandler))
	}
}
