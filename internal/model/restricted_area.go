package model

import "encoding/json"

// RestrictedArea is a region attendees must be kept out of, used by the
// evacuation view.  Coordinates is the polygon as supplied by the
// organizer's map tool and is stored verbatim as JSON.
type RestrictedArea struct {
    ID          uint64          `json:"id"`
    EventID     uint64          `json:"event_id"`
    Name        string          `json:"name"`
    Description string          `json:"description"`
    Coordinates json.RawMessage `json:"coordinates"`
}
