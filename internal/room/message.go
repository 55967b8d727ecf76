package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// MessageType names a server-to-client push message.
type MessageType string

const (
	TypeDensityUpdate  MessageType = "density_update"
	TypeCapacityUpdate MessageType = "capacity_update"
	TypeAlertBroadcast MessageType = "alert_broadcast"
)

// Message is one of the tagged push variants below. Every message is
// scoped to exactly one event's room.
type Message interface {
	Type() MessageType
	Event() uint64
}

// DensityStats summarises one density batch.
type DensityStats struct {
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

// DensityAlert is the bottleneck outcome attached to a density batch.
type DensityAlert struct {
	Message      string  `json:"message"`
	Level        string  `json:"level"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DensityLevel float64 `json:"density_level"`
}

// DensityUpdate carries one batch of density samples.
type DensityUpdate struct {
	EventID uint64               `json:"event_id"`
	Points  []model.DensityPoint `json:"points"`
	Stats   DensityStats         `json:"stats"`
	Alert   *DensityAlert        `json:"alert"`
}

func (DensityUpdate) Type() MessageType { return TypeDensityUpdate }
func (m DensityUpdate) Event() uint64   { return m.EventID }

// CapacityUpdate carries a zone's occupancy after a check-in or check-out.
type CapacityUpdate struct {
	EventID    uint64  `json:"event_id"`
	ZoneID     uint64  `json:"zone_id"`
	Current    int     `json:"current"`
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
}

func (CapacityUpdate) Type() MessageType { return TypeCapacityUpdate }
func (m CapacityUpdate) Event() uint64   { return m.EventID }

// AlertBroadcast is the in-app delivery of a dispatched alert.
type AlertBroadcast struct {
	EventID    uint64    `json:"event_id"`
	AlertType  string    `json:"type"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	AlertID    *uint64   `json:"alert_id,omitempty"`
	ZoneID     *uint64   `json:"zone_id,omitempty"`
	IncidentID *uint64   `json:"incident_id,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

func (AlertBroadcast) Type() MessageType { return TypeAlertBroadcast }
func (m AlertBroadcast) Event() uint64   { return m.EventID }

type envelope struct {
	Type MessageType `json:"type"`
	Data Message     `json:"data"`
}

// Encode renders a message in its wire envelope {"type": ..., "data": ...}.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(envelope{Type: m.Type(), Data: m})
}

// Control actions a client may send.
const (
	ActionJoin  = "join_event"
	ActionLeave = "leave_event"
)

// Control is a validated client-to-server room request.
type Control struct {
	Action  string
	EventID uint64
}

// ErrBadControl is returned for frames that are not a valid join/leave request.
var ErrBadControl = errors.New("invalid control message")

// ParseControl validates an inbound frame. The event id may be sent as a
// JSON number or a numeric string.
func ParseControl(data []byte) (Control, error) {
	var raw struct {
		Action  string          `json:"action"`
		EventID json.RawMessage `json:"event_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Control{}, fmt.Errorf("%w: %v", ErrBadControl, err)
	}
	action := strings.TrimSpace(raw.Action)
	if action != ActionJoin && action != ActionLeave {
		return Control{}, fmt.Errorf("%w: unknown action %q", ErrBadControl, raw.Action)
	}
	var id uint64
	if err := json.Unmarshal(raw.EventID, &id); err != nil {
		var s string
		if json.Unmarshal(raw.EventID, &s) != nil {
			return Control{}, fmt.Errorf("%w: event_id must be a positive integer", ErrBadControl)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Control{}, fmt.Errorf("%w: event_id must be a positive integer", ErrBadControl)
		}
		id = n
	}
	if id == 0 {
		return Control{}, fmt.Errorf("%w: event_id must be a positive integer", ErrBadControl)
	}
	return Control{Action: action, EventID: id}, nil
}
