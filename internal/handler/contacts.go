package handler

import (
    "net/http"
    "strings"

    "github.com/iliyamo/crowdsafe/internal/model"
    "github.com/labstack/echo/v4"
)

var channels = map[string]bool{
    model.ChannelInApp: true,
    model.ChannelEmail: true,
    model.ChannelSMS:   true,
}

// ListContacts handles GET /v1/events/:id/contacts.
func (h *MonitorHandler) ListContacts(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    items, err := h.Contacts.ListByEvent(c.Request().Context(), eventID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

// CreateContact handles POST /v1/events/:id/contacts.  preferred_channels
// is a list drawn from inapp, email and sms; empty means inapp,email.
func (h *MonitorHandler) CreateContact(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    var body struct {
        Name              string   `json:"name"`
        Role              string   `json:"role"`
        Phone             string   `json:"phone"`
        Email             string   `json:"email"`
        PreferredChannels []string `json:"preferred_channels"`
        IsActive          *bool    `json:"is_active"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    name := strings.TrimSpace(body.Name)
    if name == "" {
        return fail(c, http.StatusBadRequest, "name is required")
    }
    var picked []string
    seen := map[string]bool{}
    for _, ch := range body.PreferredChannels {
        ch = strings.ToLower(strings.TrimSpace(ch))
        if !channels[ch] {
            return fail(c, http.StatusBadRequest, "preferred_channels may only contain inapp, email, sms")
        }
        if !seen[ch] {
            seen[ch] = true
            picked = append(picked, ch)
        }
    }
    ctx := c.Request().Context()
    if _, err := h.loadEvent(ctx, eventID); err != nil {
        return capacityError(c, err)
    }
    contact := model.EmergencyContact{
        EventID:           eventID,
        Name:              name,
        Role:              optional(body.Role),
        Phone:             optional(body.Phone),
        Email:             optional(body.Email),
        PreferredChannels: strings.Join(picked, ","),
        IsActive:          body.IsActive == nil || *body.IsActive,
    }
    if err := h.Contacts.Create(ctx, &contact); err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "contact": contact})
}

// ToggleContact handles POST /v1/events/:id/contacts/:contact_id/toggle.
func (h *MonitorHandler) ToggleContact(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    contactID, ok := pathID(c, "contact_id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid contact id")
    }
    contact, err := h.Contacts.Toggle(c.Request().Context(), eventID, contactID)
    if err != nil {
        return capacityError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "contact": contact})
}
