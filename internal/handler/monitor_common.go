package handler // handler defines http handlers

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/iliyamo/crowdsafe/internal/alert"
    "github.com/iliyamo/crowdsafe/internal/capacity"
    "github.com/iliyamo/crowdsafe/internal/log"
    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/iliyamo/crowdsafe/internal/repository"
    "github.com/labstack/echo/v4"
)

// MonitorHandler serves the scanner and organizer endpoints of one
// monitor process.  Capacity changes go through the ledger; alerts only
// through the dispatcher.
type MonitorHandler struct {
    Ledger     *capacity.Ledger
    Dispatcher *alert.Dispatcher
    Events     *repository.EventRepo
    Zones      *repository.ZoneRepo
    Attendees  *repository.AttendeeRepo
    Alerts     *repository.AlertRepo
    Contacts   *repository.ContactRepo
    Incidents  *repository.IncidentRepo
    Areas      *repository.RestrictedAreaRepo
    Missing    *repository.MissingPersonRepo
}

// NewMonitorHandler panics if the ledger or dispatcher is missing.
func NewMonitorHandler(ledger *capacity.Ledger, dispatcher *alert.Dispatcher, events *repository.EventRepo, zones *repository.ZoneRepo, attendees *repository.AttendeeRepo, alerts *repository.AlertRepo, contacts *repository.ContactRepo, incidents *repository.IncidentRepo, areas *repository.RestrictedAreaRepo, missing *repository.MissingPersonRepo) *MonitorHandler {
    if ledger == nil || dispatcher == nil {
        panic("nil ledger or dispatcher passed to NewMonitorHandler")
    }
    return &MonitorHandler{
        Ledger:     ledger,
        Dispatcher: dispatcher,
        Events:     events,
        Zones:      zones,
        Attendees:  attendees,
        Alerts:     alerts,
        Contacts:   contacts,
        Incidents:  incidents,
        Areas:      areas,
        Missing:    missing,
    }
}

// getUserID extracts the authenticated subject stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"ok": false, "error": msg})
}

// capacityError maps domain and repository errors to HTTP responses.
// Unexpected errors are logged and hidden behind a generic 500.
func capacityError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, capacity.ErrInvalidInput):
        return fail(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, repository.ErrNotFound):
        return fail(c, http.StatusNotFound, err.Error())
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, err.Error())
    }
    l := log.WithComponent("http")
    l.Error().Err(err).
        Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
    return fail(c, http.StatusInternalServerError, "internal error")
}

// loadEvent fetches the event named in the path.
func (h *MonitorHandler) loadEvent(ctx context.Context, id uint64) (model.Event, error) {
    ev, err := h.Events.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return model.Event{}, fmt.Errorf("event %w", repository.ErrNotFound)
    }
    return ev, err
}
