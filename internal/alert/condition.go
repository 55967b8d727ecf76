package alert

import (
	"fmt"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// Condition is something that warrants an alert. Render turns it into the
// alert record; eventName is used in titles and bodies.
type Condition interface {
	EventID() uint64
	Render(eventName string) model.Alert
}

// IncidentSeverity is raised when a High or Critical incident is reported.
type IncidentSeverity struct {
	Incident model.Incident
}

func (c IncidentSeverity) EventID() uint64 { return c.Incident.EventID }

func (c IncidentSeverity) Render(eventName string) model.Alert {
	in := c.Incident
	id := in.ID
	lat, lng := in.Latitude, in.Longitude
	return model.Alert{
		EventID:  in.EventID,
		Type:     model.AlertIncident,
		Severity: in.Severity,
		Title:    fmt.Sprintf("[CrowdSafe] %s Incident: %s", in.Severity, in.Type),
		Message: fmt.Sprintf("Incident Type: %s\nSeverity: %s\nLocation: %s (%v, %v)\nDescription: %s\nEvent: %s",
			in.Type, in.Severity, in.LocationDescription, in.Latitude, in.Longitude, in.Description, eventName),
		IncidentID: &id,
		Latitude:   &lat,
		Longitude:  &lng,
	}
}

// ZoneCapacity is raised when a zone crosses upward into Warning or
// OverCapacity.
type ZoneCapacity struct {
	Zone       model.Zone
	Tier       string
	Percentage float64
}

func (c ZoneCapacity) EventID() uint64 { return c.Zone.EventID }

func (c ZoneCapacity) Render(eventName string) model.Alert {
	id := c.Zone.ID
	return model.Alert{
		EventID:  c.Zone.EventID,
		Type:     model.AlertCapacity,
		Severity: c.Tier,
		Title:    fmt.Sprintf("[CrowdSafe] %s Zone Capacity: %s", c.Tier, c.Zone.Name),
		Message: fmt.Sprintf("Zone: %s\nOccupancy: %d / %d (%.2f%%)\nStatus: %s\nEvent: %s",
			c.Zone.Name, c.Zone.CurrentCapacity, c.Zone.MaxCapacity, c.Percentage, c.Tier, eventName),
		ZoneID: &id,
	}
}

// PredictedBottleneck is raised by the density detector, or by an
// organizer through the manual notify endpoint when Manual is set.
type PredictedBottleneck struct {
	Event        uint64
	RiskLevel    string
	Details      string
	Latitude     float64
	Longitude    float64
	DensityLevel *float64
	Prediction   string
	Manual       bool
}

func (c PredictedBottleneck) EventID() uint64 { return c.Event }

func (c PredictedBottleneck) Render(eventName string) model.Alert {
	typ := model.AlertBottleneck
	if c.Manual {
		typ = model.AlertManual
	}
	lat, lng := c.Latitude, c.Longitude
	return model.Alert{
		EventID:  c.Event,
		Type:     typ,
		Severity: c.RiskLevel,
		Title:    fmt.Sprintf("[CrowdSafe] %s Bottleneck Alert", c.RiskLevel),
		Message: fmt.Sprintf("Risk Level: %s\nLocation: (%.6f, %.6f)\nDetails: %s\nEvent: %s",
			c.RiskLevel, c.Latitude, c.Longitude, c.Details, eventName),
		Latitude:     &lat,
		Longitude:    &lng,
		DensityLevel: c.DensityLevel,
		Prediction:   c.Prediction,
	}
}
