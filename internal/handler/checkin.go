package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// CheckIn handles POST /v1/events/:id/checkin with {qr_code, zone_id}.
func (h *MonitorHandler) CheckIn(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        QRCode string `json:"qr_code"`
        ZoneID uint64 `json:"zone_id"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    res, err := h.Ledger.CheckIn(c.Request().Context(), eventID, body.QRCode, body.ZoneID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ok":          true,
        "checkin_id":  res.CheckIn.ID,
        "attendee_id": res.CheckIn.AttendeeID,
        "zone_id":     res.CheckIn.ZoneID,
        "zone":        res.Zone,
    })
}

// CheckOut handles POST /v1/events/:id/checkout with {qr_code}.  The zone
// is taken from the attendee's open check-in.
func (h *MonitorHandler) CheckOut(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        QRCode string `json:"qr_code"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    res, err := h.Ledger.CheckOut(c.Request().Context(), eventID, body.QRCode)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ok":          true,
        "attendee_id": res.CheckIn.AttendeeID,
        "zone_id":     res.CheckIn.ZoneID,
        "zone":        res.Zone,
    })
}

// ZoneCapacities handles GET /v1/events/:id/zones/capacity.
func (h *MonitorHandler) ZoneCapacities(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    zones, err := h.Ledger.Capacities(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "zones": zones})
}

// EndEvent handles POST /v1/events/:id/end: every open check-in is closed
// and all zones drop to zero.
func (h *MonitorHandler) EndEvent(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    if _, err := h.loadEvent(c.Request().Context(), eventID); err != nil {
        return capacityError(c, err)
    }
    closed, err := h.Ledger.EndEvent(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "closed_checkins": closed})
}
