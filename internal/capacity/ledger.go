// Package capacity tracks zone occupancy. Every check-in and check-out is
// applied atomically with its zone counter, announced to the event room,
// and checked against the occupancy tiers so that each upward crossing
// raises exactly one alert.
package capacity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/crowdsafe/internal/alert"
	"github.com/iliyamo/crowdsafe/internal/clock"
	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/iliyamo/crowdsafe/internal/model"
	"github.com/iliyamo/crowdsafe/internal/repository"
	"github.com/iliyamo/crowdsafe/internal/room"
	"github.com/rs/zerolog"
)

// Contact trace window bounds, in minutes.
const (
	MinTraceWindow = 1
	MaxTraceWindow = 1440
)

// Store is the persistence the ledger needs. repository.Ledger implements it.
type Store interface {
	AttendeeByToken(ctx context.Context, eventID uint64, token string) (model.Attendee, error)
	ZoneInEvent(ctx context.Context, eventID, zoneID uint64) (model.Zone, error)
	ZonesByEvent(ctx context.Context, eventID uint64) ([]model.Zone, error)
	ActiveCheckIn(ctx context.Context, attendeeID uint64) (model.CheckIn, error)
	RecordCheckIn(ctx context.Context, c *model.CheckIn) (model.Zone, error)
	RecordCheckOut(ctx context.Context, c *model.CheckIn, at time.Time) (model.Zone, error)
	CloseEvent(ctx context.Context, eventID uint64, at time.Time) (int, error)
	Trace(ctx context.Context, eventID, zoneID uint64, since time.Time) ([]model.TraceEntry, error)
}

// Publisher pushes capacity updates to the event room.
type Publisher interface {
	Publish(m room.Message) int
}

// Alerter raises alerts for tier crossings.
type Alerter interface {
	Dispatch(ctx context.Context, cond alert.Condition) model.Alert
}

// ZoneCapacity is the occupancy view of one zone.
type ZoneCapacity struct {
	ZoneID     uint64  `json:"zone_id"`
	Name       string  `json:"name"`
	Current    int     `json:"current"`
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// Result is the outcome of a successful check-in or check-out.
type Result struct {
	CheckIn model.CheckIn
	Zone    ZoneCapacity
}

type zoneState struct {
	zone model.Zone
	tier Tier
}

// Ledger serialises occupancy changes per zone and per attendee. Different
// zones never block each other. Locks are always taken attendee first,
// then zone.
type Ledger struct {
	store  Store
	rooms  Publisher
	alerts Alerter
	clock  clock.Clock
	log    zerolog.Logger

	zoneLocks     keyedMutex
	attendeeLocks keyedMutex

	mu    sync.Mutex
	state map[uint64]zoneState
}

// NewLedger wires a ledger to its store, room publisher and alerter.
func NewLedger(store Store, rooms Publisher, alerts Alerter, clk clock.Clock) *Ledger {
	return &Ledger{
		store:  store,
		rooms:  rooms,
		alerts: alerts,
		clock:  clk,
		log:    log.WithComponent("capacity"),
		state:  make(map[uint64]zoneState),
	}
}

// CheckIn admits the attendee holding token into zoneID.
func (l *Ledger) CheckIn(ctx context.Context, eventID uint64, token string, zoneID uint64) (Result, error) {
	res, err := l.checkIn(ctx, eventID, token, zoneID)
	metrics.CheckInsTotal.WithLabelValues("checkin", outcome(err)).Inc()
	return res, err
}

func (l *Ledger) checkIn(ctx context.Context, eventID uint64, token string, zoneID uint64) (Result, error) {
	token = strings.TrimSpace(token)
	switch {
	case eventID == 0:
		return Result{}, invalid("event_id is required")
	case token == "":
		return Result{}, invalid("qr_code is required")
	case zoneID == 0:
		return Result{}, invalid("zone_id is required")
	}

	attendee, err := l.store.AttendeeByToken(ctx, eventID, token)
	if err != nil {
		return Result{}, notFound(err, ErrAttendeeNotFound)
	}
	if _, err := l.store.ZoneInEvent(ctx, eventID, zoneID); err != nil {
		return Result{}, notFound(err, ErrZoneNotFound)
	}

	unlockAttendee := l.attendeeLocks.Lock(attendee.ID)
	defer unlockAttendee()

	if _, err := l.store.ActiveCheckIn(ctx, attendee.ID); err == nil {
		return Result{}, ErrAlreadyCheckedIn
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Result{}, err
	}

	unlockZone := l.zoneLocks.Lock(zoneID)
	defer unlockZone()

	ci := model.CheckIn{
		EventID:     eventID,
		AttendeeID:  attendee.ID,
		ZoneID:      zoneID,
		CheckInTime: l.clock.Now(),
	}
	zone, err := l.store.RecordCheckIn(ctx, &ci)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return Result{}, ErrAlreadyCheckedIn
		}
		return Result{}, err
	}
	return Result{CheckIn: ci, Zone: l.applyLocked(ctx, zone, zone.CurrentCapacity-1)}, nil
}

// CheckOut closes the attendee's open check-in and frees its zone slot.
func (l *Ledger) CheckOut(ctx context.Context, eventID uint64, token string) (Result, error) {
	res, err := l.checkOut(ctx, eventID, token)
	metrics.CheckInsTotal.WithLabelValues("checkout", outcome(err)).Inc()
	return res, err
}

func (l *Ledger) checkOut(ctx context.Context, eventID uint64, token string) (Result, error) {
	token = strings.TrimSpace(token)
	switch {
	case eventID == 0:
		return Result{}, invalid("event_id is required")
	case token == "":
		return Result{}, invalid("qr_code is required")
	}

	attendee, err := l.store.AttendeeByToken(ctx, eventID, token)
	if err != nil {
		return Result{}, notFound(err, ErrAttendeeNotFound)
	}

	unlockAttendee := l.attendeeLocks.Lock(attendee.ID)
	defer unlockAttendee()

	ci, err := l.store.ActiveCheckIn(ctx, attendee.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, ErrNotCheckedIn
		}
		return Result{}, err
	}

	unlockZone := l.zoneLocks.Lock(ci.ZoneID)
	defer unlockZone()

	zone, err := l.store.RecordCheckOut(ctx, &ci, l.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return Result{}, ErrNotCheckedIn
		}
		return Result{}, err
	}
	return Result{CheckIn: ci, Zone: l.applyLocked(ctx, zone, zone.CurrentCapacity+1)}, nil
}

// applyLocked publishes the zone's new occupancy and raises an alert on
// an upward tier crossing. The caller holds the zone lock. prevCount is
// used to derive the previous tier the first time a zone is seen.
func (l *Ledger) applyLocked(ctx context.Context, zone model.Zone, prevCount int) ZoneCapacity {
	l.mu.Lock()
	prev, seen := l.state[zone.ID]
	l.mu.Unlock()
	prevTier := Evaluate(prevCount, zone.MaxCapacity)
	if seen {
		prevTier = prev.tier
	}
	next := Evaluate(zone.CurrentCapacity, zone.MaxCapacity)
	view := capacityOf(zone, next)

	l.rooms.Publish(room.CapacityUpdate{
		EventID:    zone.EventID,
		ZoneID:     zone.ID,
		Current:    view.Current,
		Max:        view.Max,
		Percentage: view.Percentage,
	})
	if Crossed(prevTier, next) {
		metrics.ZoneTransitionsTotal.WithLabelValues(next.String()).Inc()
		l.log.Info().Uint64("event_id", zone.EventID).Uint64("zone_id", zone.ID).
			Str("from", prevTier.String()).Str("to", next.String()).
			Int("current", zone.CurrentCapacity).Int("max", zone.MaxCapacity).
			Msg("zone tier crossed")
		l.alerts.Dispatch(ctx, alert.ZoneCapacity{Zone: zone, Tier: next.String(), Percentage: view.Percentage})
	}

	l.mu.Lock()
	l.state[zone.ID] = zoneState{zone: zone, tier: next}
	l.mu.Unlock()
	return view
}

// EndEvent closes every open check-in of the event and resets its zones
// to zero. It returns the number of check-ins closed.
func (l *Ledger) EndEvent(ctx context.Context, eventID uint64) (int, error) {
	if eventID == 0 {
		return 0, invalid("event_id is required")
	}
	zones, err := l.store.ZonesByEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	for _, z := range zones {
		unlock := l.zoneLocks.Lock(z.ID)
		defer unlock()
	}

	closed, err := l.store.CloseEvent(ctx, eventID, l.clock.Now())
	if err != nil {
		return 0, err
	}
	for _, z := range zones {
		z.CurrentCapacity = 0
		l.mu.Lock()
		l.state[z.ID] = zoneState{zone: z, tier: TierNormal}
		l.mu.Unlock()
		l.rooms.Publish(room.CapacityUpdate{EventID: eventID, ZoneID: z.ID, Current: 0, Max: z.MaxCapacity})
	}
	l.log.Info().Uint64("event_id", eventID).Int("closed_checkins", closed).Msg("event ended")
	return closed, nil
}

// Capacities lists every zone of the event with its live occupancy.
func (l *Ledger) Capacities(ctx context.Context, eventID uint64) ([]ZoneCapacity, error) {
	if eventID == 0 {
		return nil, invalid("event_id is required")
	}
	zones, err := l.store.ZonesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]ZoneCapacity, 0, len(zones))
	for _, z := range zones {
		out = append(out, l.current(z))
	}
	return out, nil
}

// current reads a zone under its lock so the view is never torn by an
// in-flight check-in. The in-memory snapshot wins over the row read
// earlier by the caller.
func (l *Ledger) current(z model.Zone) ZoneCapacity {
	unlock := l.zoneLocks.Lock(z.ID)
	defer unlock()
	l.mu.Lock()
	st, ok := l.state[z.ID]
	l.mu.Unlock()
	if ok {
		z.CurrentCapacity = st.zone.CurrentCapacity
		z.MaxCapacity = st.zone.MaxCapacity
	}
	return capacityOf(z, Evaluate(z.CurrentCapacity, z.MaxCapacity))
}

// ContactTrace lists attendees who checked into the zone within the last
// windowMinutes.
func (l *Ledger) ContactTrace(ctx context.Context, eventID, zoneID uint64, windowMinutes int) ([]model.TraceEntry, error) {
	switch {
	case eventID == 0:
		return nil, invalid("event_id is required")
	case zoneID == 0:
		return nil, invalid("zone_id is required")
	case windowMinutes < MinTraceWindow || windowMinutes > MaxTraceWindow:
		return nil, invalid("window_minutes must be between 1 and 1440")
	}
	if _, err := l.store.ZoneInEvent(ctx, eventID, zoneID); err != nil {
		return nil, notFound(err, ErrZoneNotFound)
	}
	since := l.clock.Now().Add(-time.Duration(windowMinutes) * time.Minute)
	return l.store.Trace(ctx, eventID, zoneID, since)
}

func capacityOf(z model.Zone, t Tier) ZoneCapacity {
	return ZoneCapacity{
		ZoneID:     z.ID,
		Name:       z.Name,
		Current:    z.CurrentCapacity,
		Max:        z.MaxCapacity,
		Percentage: Percentage(z.CurrentCapacity, z.MaxCapacity),
		Status:     t.String(),
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
