package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/labstack/echo/v4"
)

// ReportMissing handles POST /v1/events/:id/missing.  last_seen_time is
// RFC 3339; age is optional.
func (h *MonitorHandler) ReportMissing(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Name             string `json:"name"`
        Age              *int   `json:"age"`
        Description      string `json:"description"`
        LastSeenLocation string `json:"last_seen_location"`
        LastSeenTime     string `json:"last_seen_time"`
        ReporterName     string `json:"reporter_name"`
        ReporterContact  string `json:"reporter_contact"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    p := model.MissingPerson{
        EventID:          eventID,
        Name:             strings.TrimSpace(body.Name),
        Age:              body.Age,
        Description:      strings.TrimSpace(body.Description),
        LastSeenLocation: strings.TrimSpace(body.LastSeenLocation),
        ReporterName:     strings.TrimSpace(body.ReporterName),
        ReporterContact:  strings.TrimSpace(body.ReporterContact),
    }
    seen, err := time.Parse(time.RFC3339, strings.TrimSpace(body.LastSeenTime))
    switch {
    case p.Name == "":
        return fail(c, http.StatusBadRequest, "name is required")
    case p.Age != nil && (*p.Age < 0 || *p.Age > 150):
        return fail(c, http.StatusBadRequest, "age must be between 0 and 150")
    case p.Description == "":
        return fail(c, http.StatusBadRequest, "description is required")
    case p.LastSeenLocation == "":
        return fail(c, http.StatusBadRequest, "last_seen_location is required")
    case err != nil:
        return fail(c, http.StatusBadRequest, "last_seen_time must be an RFC 3339 timestamp")
    case p.ReporterName == "" || p.ReporterContact == "":
        return fail(c, http.StatusBadRequest, "reporter_name and reporter_contact are required")
    }
    p.LastSeenTime = seen.UTC()
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    if err := h.Missing.Create(ctx, &p); err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "missing_person": p})
}

// ListMissing handles GET /v1/events/:id/missing, newest report first.
func (h *MonitorHandler) ListMissing(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    items, err := h.Missing.ListByEvent(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

// UpdateMissingStatus handles POST /v1/events/:id/missing/:person_id/status
// with {status} of Missing or Found.
func (h *MonitorHandler) UpdateMissingStatus(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    personID, ok := pathID(c, "person_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid person id")
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    status := strings.TrimSpace(body.Status)
    if status != model.PersonMissing && status != model.PersonFound {
        return fail(c, http.StatusBadRequest, "status must be Missing or Found")
    }
    p, err := h.Missing.SetStatus(c.Request().Context(), eventID, personID, status)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "missing_person": p})
}
