package capacity

import (
	"errors"
	"fmt"

	"github.com/iliyamo/crowdsafe/internal/repository"
)

var (
	// ErrInvalidInput rejects malformed requests before any state is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAttendeeNotFound is returned when the QR token is unknown within the event.
	ErrAttendeeNotFound = fmt.Errorf("attendee %w", repository.ErrNotFound)

	// ErrZoneNotFound is returned when the zone does not belong to the event.
	ErrZoneNotFound = fmt.Errorf("zone %w", repository.ErrNotFound)

	// ErrAlreadyCheckedIn is returned when the attendee already has an open check-in.
	ErrAlreadyCheckedIn = fmt.Errorf("%w: attendee already checked in", repository.ErrConflict)

	// ErrNotCheckedIn is returned by check-out when no open check-in exists.
	ErrNotCheckedIn = fmt.Errorf("%w: attendee not checked in", repository.ErrConflict)
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
