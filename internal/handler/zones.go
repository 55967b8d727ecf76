package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/iliyamo/crowdsafe/internal/capacity"
    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/iliyamo/crowdsafe/internal/repository"
    "github.com/labstack/echo/v4"
)

// CreateZone handles POST /v1/events/:id/zones with {name, max_capacity}.
func (h *MonitorHandler) CreateZone(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Name        string `json:"name"`
        MaxCapacity int    `json:"max_capacity"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    name := strings.TrimSpace(body.Name)
    if name == "" {
        return fail(c, http.StatusBadRequest, "name is required")
    }
    if body.MaxCapacity <= 0 {
        return fail(c, http.StatusBadRequest, "max_capacity must be positive")
    }
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    z := model.Zone{EventID: eventID, Name: name, MaxCapacity: body.MaxCapacity}
    if err := h.Zones.Create(ctx, &z); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return fail(c, http.StatusConflict, "zone name already exists")
        }
        return capacityError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "ok":   true,
        "zone": capacity.ZoneCapacity{ZoneID: z.ID, Name: z.Name, Max: z.MaxCapacity, Status: capacity.TierNormal.String()},
    })
}

// ContactTrace handles GET /v1/events/:id/zones/:zone_id/trace.
// window_minutes defaults to 60 and must lie in 1..1440.
func (h *MonitorHandler) ContactTrace(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    zoneID, ok := pathID(c, "zone_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid zone id")
    }
    window := 60
    if raw := strings.TrimSpace(c.QueryParam("window_minutes")); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil {
            return fail(c, http.StatusBadRequest, "window_minutes must be an integer")
        }
        window = n
    }
    entries, err := h.Ledger.ContactTrace(c.Request().Context(), eventID, zoneID, window)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ok":             true,
        "zone_id":        zoneID,
        "window_minutes": window,
        "items":          entries,
    })
}

// RegisterAttendee handles POST /v1/events/:id/attendees and returns the
// issued QR token.
func (h *MonitorHandler) RegisterAttendee(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Name  string `json:"name"`
        Email string `json:"email"`
        Phone string `json:"phone"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    name := strings.TrimSpace(body.Name)
    if name == "" {
        return fail(c, http.StatusBadRequest, "name is required")
    }
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    a := model.Attendee{EventID: eventID, Name: name, Email: optional(body.Email), Phone: optional(body.Phone)}
    if err := h.Attendees.Create(ctx, &a); err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "attendee_id": a.ID, "qr_code": a.QRCode})
}

// optional turns a blank string into a NULL column.
func optional(s string) *string {
    if s = strings.TrimSpace(s); s == "" {
        return nil
    }
    return &s
}
