package model

import "time"

// Incident severities.  High and Critical incidents raise an alert.
const (
    SeverityLow      = "Low"
    SeverityMedium   = "Medium"
    SeverityHigh     = "High"
    SeverityCritical = "Critical"
)

// Incident workflow states.
const (
    StatusReported   = "Reported"
    StatusInProgress = "In Progress"
    StatusResolved   = "Resolved"
)

// IncidentStatusValid reports whether s is a known incident state.
func IncidentStatusValid(s string) bool {
    return s == StatusReported || s == StatusInProgress || s == StatusResolved
}

// Incident is a field report (medical, security, ...) filed during an event.
type Incident struct {
    ID                  uint64    `json:"id"`
    EventID             uint64    `json:"event_id"`
    ReporterID          uint64    `json:"reporter_id"`
    Type                string    `json:"incident_type"`
    Description         string    `json:"description"`
    LocationDescription string    `json:"location_description"`
    Latitude            float64   `json:"latitude"`
    Longitude           float64   `json:"longitude"`
    Severity            string    `json:"severity"`
    Status              string    `json:"status"`
    CreatedAt           time.Time `json:"created_at"`
}

// Alerting reports whether the incident's severity warrants an alert.
func (i Incident) Alerting() bool {
    return i.Severity == SeverityHigh || i.Severity == SeverityCritical
}
