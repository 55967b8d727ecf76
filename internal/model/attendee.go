package model

import "time"

// Attendee is a ticket holder registered for an event.  QRCode is the
// opaque token printed on the badge and is the only key accepted by the
// scanners; it is unique within the event.
type Attendee struct {
    ID        uint64    // attendees.id
    EventID   uint64    // attendees.event_id
    Name      string    // attendees.name
    Email     *string   // attendees.email (nullable)
    Phone     *string   // attendees.phone (nullable)
    QRCode    string    // attendees.qr_code
    CreatedAt time.Time // attendees.created_at
}
