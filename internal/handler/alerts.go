package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/iliyamo/crowdsafe/internal/alert"
    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/labstack/echo/v4"
)

var riskLevels = map[string]bool{
    model.RiskLow:      true,
    model.RiskMedium:   true,
    model.RiskHigh:     true,
    model.RiskCritical: true,
}

// NotifyContacts handles POST /v1/events/:id/notify, the organizer's manual
// bottleneck alert.  Coordinates default to the venue.
func (h *MonitorHandler) NotifyContacts(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        RiskLevel string   `json:"risk_level"`
        Message   string   `json:"message"`
        Latitude  *float64 `json:"latitude"`
        Longitude *float64 `json:"longitude"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    risk := strings.TrimSpace(body.RiskLevel)
    if !riskLevels[risk] {
        return fail(c, http.StatusBadRequest, "risk_level must be one of Low, Medium, High, Critical")
    }
    msg := strings.TrimSpace(body.Message)
    if msg == "" {
        return fail(c, http.StatusBadRequest, "message is required")
    }
    ctx := c.Request().Context()
    ev, err := h.loadEvent(ctx, eventID)
    if err != nil {
        return capacityError(c, err)
    }
    lat, lng := ev.Latitude, ev.Longitude
    if body.Latitude != nil {
        lat = *body.Latitude
    }
    if body.Longitude != nil {
        lng = *body.Longitude
    }
    a := h.Dispatcher.Dispatch(ctx, alert.PredictedBottleneck{
        Event:     eventID,
        RiskLevel: risk,
        Details:   msg,
        Latitude:  lat,
        Longitude: lng,
        Manual:    true,
    })
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "alert_id": a.ID})
}

// ListAlerts handles GET /v1/events/:id/alerts?limit=.  Responses are
// served through the Redis cache middleware.
func (h *MonitorHandler) ListAlerts(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    limit := 100
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n <= 0 || n > 500 {
            return fail(c, http.StatusBadRequest, "limit must be between 1 and 500")
        }
        limit = n
    }
    items, err := h.Alerts.ListByEvent(c.Request().Context(), eventID, limit)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}
