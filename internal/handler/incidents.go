package handler

import (
    "net/http"
    "strings"

    "github.com/iliyamo/crowdsafe/internal/alert"
    "github.com/iliyamo/crowdsafe/internal/middleware"
    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/labstack/echo/v4"
)

var severities = map[string]bool{
    model.SeverityLow:      true,
    model.SeverityMedium:   true,
    model.SeverityHigh:     true,
    model.SeverityCritical: true,
}

// ReportIncident handles POST /v1/events/:id/incidents.  High and Critical
// incidents are dispatched as alerts right away.
func (h *MonitorHandler) ReportIncident(c echo.Context) error {
    reporterID, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Type                string  `json:"incident_type"`
        Description         string  `json:"description"`
        LocationDescription string  `json:"location_description"`
        Latitude            float64 `json:"latitude"`
        Longitude           float64 `json:"longitude"`
        Severity            string  `json:"severity"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    in := model.Incident{
        EventID:             eventID,
        ReporterID:          reporterID,
        Type:                strings.TrimSpace(body.Type),
        Description:         strings.TrimSpace(body.Description),
        LocationDescription: strings.TrimSpace(body.LocationDescription),
        Latitude:            body.Latitude,
        Longitude:           body.Longitude,
        Severity:            strings.TrimSpace(body.Severity),
    }
    switch {
    case in.Type == "":
        return fail(c, http.StatusBadRequest, "incident_type is required")
    case in.Description == "":
        return fail(c, http.StatusBadRequest, "description is required")
    case in.LocationDescription == "":
        return fail(c, http.StatusBadRequest, "location_description is required")
    case !severities[in.Severity]:
        return fail(c, http.StatusBadRequest, "severity must be one of Low, Medium, High, Critical")
    }
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    if err := h.Incidents.Create(ctx, &in); err != nil {
        return capacityError(c, err)
    }
    resp := echo.Map{"ok": true, "incident": in}
    if in.Alerting() {
        a := h.Dispatcher.Dispatch(ctx, alert.IncidentSeverity{Incident: in})
        resp["alert_id"] = a.ID
    }
    return c.JSON(http.StatusCreated, resp)
}

// ListIncidents handles GET /v1/events/:id/incidents, newest first.
func (h *MonitorHandler) ListIncidents(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    items, err := h.Incidents.ListByEvent(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

// GetIncident handles GET /v1/events/:id/incidents/:incident_id.  Scanners
// may only read the incidents they reported.
func (h *MonitorHandler) GetIncident(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    incidentID, ok := pathID(c, "incident_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid incident id")
    }
    in, err := h.Incidents.GetInEvent(c.Request().Context(), eventID, incidentID)
    if err != nil {
        return capacityError(c, err)
    }
    if role, _ := c.Get("role").(string); role != middleware.RoleOrganizer && in.ReporterID != userID {
        return fail(c, http.StatusForbidden, "forbidden")
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "incident": in})
}

// UpdateIncidentStatus handles POST /v1/events/:id/incidents/:incident_id/status
// with {status} drawn from Reported, In Progress, Resolved.
func (h *MonitorHandler) UpdateIncidentStatus(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    incidentID, ok := pathID(c, "incident_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid incident id")
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    status := strings.TrimSpace(body.Status)
    if !model.IncidentStatusValid(status) {
        return fail(c, http.StatusBadRequest, "status must be one of Reported, In Progress, Resolved")
    }
    in, err := h.Incidents.SetStatus(c.Request().Context(), eventID, incidentID, status)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "incident": in})
}
