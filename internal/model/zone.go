package model

// Zone is a bounded sub-area of an event with its own capacity limit.
// CurrentCapacity is derived: it equals the number of open check-ins for
// the zone and is only changed by check-in, check-out and end-of-event
// transitions in the capacity ledger.
//
// Fields:
//  ID              – primary key identifier.
//  EventID         – owning event.
//  Name            – zone label shown to organizers.
//  MaxCapacity     – configured limit (positive).
//  CurrentCapacity – number of attendees currently checked in.
type Zone struct {
    ID              uint64 // zones.id
    EventID         uint64 // zones.event_id
    Name            string // zones.name
    MaxCapacity     int    // zones.max_capacity
    CurrentCapacity int    // zones.current_capacity
}
