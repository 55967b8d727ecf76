package model

import (
    "strings"
    "time"
)

// Notification channels a contact can opt into.
const (
    ChannelInApp = "inapp"
    ChannelEmail = "email"
    ChannelSMS   = "sms"
)

// DefaultChannels is applied when a contact is created without preferences.
const DefaultChannels = "inapp,email"

// EmergencyContact is a responder who receives alerts for one event.
// PreferredChannels is stored as a comma separated list.
type EmergencyContact struct {
    ID                uint64    `json:"id"`
    EventID           uint64    `json:"event_id"`
    Name              string    `json:"name"`
    Role              *string   `json:"role,omitempty"`
    Phone             *string   `json:"phone,omitempty"`
    Email             *string   `json:"email,omitempty"`
    PreferredChannels string    `json:"preferred_channels"`
    IsActive          bool      `json:"is_active"`
    CreatedAt         time.Time `json:"created_at"`
}

// Channels returns the trimmed, non-empty channel names of the contact.
func (c EmergencyContact) Channels() []string {
    var out []string
    for _, p := range strings.Split(c.PreferredChannels, ",") {
        p = strings.ToLower(strings.TrimSpace(p))
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}

// Wants reports whether the contact opted into channel.
func (c EmergencyContact) Wants(channel string) bool {
    for _, ch := range c.Channels() {
        if ch == channel {
            return true
        }
    }
    return false
}
