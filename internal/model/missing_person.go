package model

import "time"

// Missing person report states.
const (
    PersonMissing = "Missing"
    PersonFound   = "Found"
)

// MissingPerson is a report filed during an event.  Reference photos and
// footage are handled by the media service and are not part of the record.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event the person went missing at.
//  Name             – name of the missing person.
//  Age              – age when known.
//  Description      – clothing and appearance.
//  LastSeenLocation – free-text location.
//  LastSeenTime     – when the person was last seen.
//  ReporterName     – who filed the report.
//  ReporterContact  – how to reach the reporter.
//  Status           – Missing or Found.
//  CreatedAt        – when the report was filed.
type MissingPerson struct {
    ID               uint64    `json:"id"`
    EventID          uint64    `json:"event_id"`
    Name             string    `json:"name"`
    Age              *int      `json:"age,omitempty"`
    Description      string    `json:"description"`
    LastSeenLocation string    `json:"last_seen_location"`
    LastSeenTime     time.Time `json:"last_seen_time"`
    ReporterName     string    `json:"reporter_name"`
    ReporterContact  string    `json:"reporter_contact"`
    Status           string    `json:"status"`
    CreatedAt        time.Time `json:"created_at"`
}
