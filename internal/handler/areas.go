package handler

import (
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/labstack/echo/v4"
)

// CreateRestrictedArea handles POST /v1/events/:id/restricted-areas with
// {name, description, coordinates}.  coordinates must be a JSON array of
// polygon points.
func (h *MonitorHandler) CreateRestrictedArea(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Name        string          `json:"name"`
        Description string          `json:"description"`
        Coordinates json.RawMessage `json:"coordinates"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    area := model.RestrictedArea{
        EventID:     eventID,
        Name:        strings.TrimSpace(body.Name),
        Description: strings.TrimSpace(body.Description),
        Coordinates: body.Coordinates,
    }
    switch {
    case area.Name == "":
        return fail(c, http.StatusBadRequest, "name is required")
    case area.Description == "":
        return fail(c, http.StatusBadRequest, "description is required")
    case !isJSONArray(area.Coordinates):
        return fail(c, http.StatusBadRequest, "coordinates must be a JSON array")
    }
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    if err := h.Areas.Create(ctx, &area); err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "restricted_area": area})
}

func isJSONArray(raw json.RawMessage) bool {
    var points []json.RawMessage
    return json.Unmarshal(raw, &points) == nil && points != nil
}

// ListRestrictedAreas handles GET /v1/events/:id/restricted-areas.
func (h *MonitorHandler) ListRestrictedAreas(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    items, err := h.Areas.ListByEvent(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

type evacuationIncident struct {
    ID        uint64    `json:"id"`
    Latitude  float64   `json:"latitude"`
    Longitude float64   `json:"longitude"`
    Severity  string    `json:"severity"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
}

// Evacuation handles GET /v1/events/:id/evacuation: incident locations and
// restricted areas for the route planner.
func (h *MonitorHandler) Evacuation(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    ctx := c.Request().Context()
    ev, err := h.loadEvent(ctx, eventID)
    if err != nil {
        return capacityError(c, err)
    }
    incidents, err := h.Incidents.ListByEvent(ctx, eventID)
    if err != nil {
        return capacityError(c, err)
    }
    areas, err := h.Areas.ListByEvent(ctx, eventID)
    if err != nil {
        return capacityError(c, err)
    }
    points := make([]evacuationIncident, 0, len(incidents))
    for _, in := range incidents {
        points = append(points, evacuationIncident{
            ID:        in.ID,
            Latitude:  in.Latitude,
            Longitude: in.Longitude,
            Severity:  in.Severity,
            Status:    in.Status,
            CreatedAt: in.CreatedAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ok":               true,
        "venue":            echo.Map{"name": ev.VenueName, "latitude": ev.Latitude, "longitude": ev.Longitude},
        "incidents":        points,
        "restricted_areas": areas,
    })
}
