package model

import "time"

// Event represents a monitored public event.  Only the fields needed by
// the monitoring core are loaded; the full catalogue record lives with
// the event management service.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name used in alert titles and bodies.
//  VenueName – name of the venue.
//  Latitude  – venue latitude, used as the centre of synthetic density samples.
//  Longitude – venue longitude.
//  StartsAt  – scheduled start of the event.
type Event struct {
    ID        uint64    // events.id
    Name      string    // events.name
    VenueName string    // events.venue_name
    Latitude  float64   // events.latitude
    Longitude float64   // events.longitude
    StartsAt  time.Time // events.starts_at
}
