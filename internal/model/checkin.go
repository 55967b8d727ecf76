package model

import "time"

// CheckIn records an attendee entering a zone.  CheckOutTime stays nil
// while the attendee is inside.  An attendee has at most one open
// check-in at any time.  Rows are closed, never deleted.
type CheckIn struct {
    ID           uint64     // checkins.id
    EventID      uint64     // checkins.event_id
    AttendeeID   uint64     // checkins.attendee_id
    ZoneID       uint64     // checkins.zone_id
    CheckInTime  time.Time  // checkins.check_in_time
    CheckOutTime *time.Time // checkins.check_out_time (nullable)
}

// Open reports whether the attendee is still checked in.
func (c CheckIn) Open() bool { return c.CheckOutTime == nil }

// TraceEntry is one row of a contact trace: an attendee who was checked
// into a zone during the requested window.
type TraceEntry struct {
    AttendeeID   uint64     `json:"attendee_id"`
    Name         string     `json:"name"`
    Email        *string    `json:"email"`
    Phone        *string    `json:"phone"`
    CheckInTime  time.Time  `json:"check_in_time"`
    CheckOutTime *time.Time `json:"check_out_time"`
}
