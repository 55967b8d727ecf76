package model

import "time"

// AlertType classifies what raised an alert.
type AlertType string

const (
    AlertIncident   AlertType = "incident"
    AlertCapacity   AlertType = "capacity"
    AlertBottleneck AlertType = "bottleneck"
    AlertManual     AlertType = "manual"
)

// Alert is the immutable record of a detected condition.  Only the
// alert dispatcher creates alerts; Resolved is the single field an
// operator may change afterwards.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – owning event.
//  Type         – incident, capacity, bottleneck or manual.
//  Severity     – risk tier label (Warning, OverCapacity, High, Critical...).
//  Title        – short subject used for email and the in-app banner.
//  Message      – human readable body.
//  ZoneID       – zone involved (capacity alerts only).
//  IncidentID   – incident involved (incident alerts only).
//  Latitude     – location of the condition when known.
//  Longitude    – location of the condition when known.
//  DensityLevel – predicted density level (bottleneck alerts only).
//  Prediction   – free-text prediction attached to bottleneck alerts.
//  Resolved     – set by an operator once handled.
//  CreatedAt    – creation timestamp.
type Alert struct {
    ID           uint64    `json:"id"`
    EventID      uint64    `json:"event_id"`
    Type         AlertType `json:"type"`
    Severity     string    `json:"severity"`
    Title        string    `json:"title"`
    Message      string    `json:"message"`
    ZoneID       *uint64   `json:"zone_id,omitempty"`
    IncidentID   *uint64   `json:"incident_id,omitempty"`
    Latitude     *float64  `json:"latitude,omitempty"`
    Longitude    *float64  `json:"longitude,omitempty"`
    DensityLevel *float64  `json:"density_level,omitempty"`
    Prediction   string    `json:"prediction,omitempty"`
    Resolved     bool      `json:"resolved"`
    CreatedAt    time.Time `json:"created_at"`
}
