// Package alert turns detected conditions into alert records and fans
// them out: persisted first, then broadcast to the event room, then sent
// to the active emergency contacts who opted into email or SMS.
package alert

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/crowdsafe/internal/clock"
	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/iliyamo/crowdsafe/internal/model"
	"github.com/iliyamo/crowdsafe/internal/notify"
	"github.com/iliyamo/crowdsafe/internal/room"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/iliyamo/crowdsafe/internal/alert")

// AlertStore persists alert records.
type AlertStore interface {
	Create(ctx context.Context, a *model.Alert) error
}

// ContactSource lists the contacts that should receive alerts.
type ContactSource interface {
	ActiveByEvent(ctx context.Context, eventID uint64) ([]model.EmergencyContact, error)
}

// EventSource loads the event an alert belongs to.
type EventSource interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// Publisher pushes messages into an event room.
type Publisher interface {
	Publish(m room.Message) int
}

// Notifier delivers a notice out of band.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notice) error
}

// CacheInvalidator drops cached copies of an event's alert history.
type CacheInvalidator interface {
	InvalidateAlerts(ctx context.Context, eventID uint64) error
}

// Dispatcher is safe for concurrent use. Dispatch returns once the alert
// has been stored and broadcast; email and SMS run in the background and
// are awaited by Wait.
type Dispatcher struct {
	alerts   AlertStore
	contacts ContactSource
	events   EventSource
	rooms    Publisher
	notifier Notifier
	cache    CacheInvalidator
	clock    clock.Clock
	log      zerolog.Logger

	mu    sync.Mutex
	names map[uint64]string
	wg    sync.WaitGroup
}

// NewDispatcher wires a dispatcher. events may be nil, in which case alerts
// name the event by id.
func NewDispatcher(alerts AlertStore, contacts ContactSource, events EventSource, rooms Publisher, notifier Notifier, clk clock.Clock) *Dispatcher {
	return &Dispatcher{
		alerts:   alerts,
		contacts: contacts,
		events:   events,
		rooms:    rooms,
		notifier: notifier,
		clock:    clk,
		log:      log.WithComponent("alert"),
		names:    make(map[uint64]string),
	}
}

// SetCache registers the cache to purge whenever an alert is stored.  Call it
// before the first Dispatch.
func (d *Dispatcher) SetCache(c CacheInvalidator) { d.cache = c }

// Dispatch records and delivers the alert for cond. A storage failure is
// logged and the alert is still broadcast and notified; the returned
// record then has a zero ID.
func (d *Dispatcher) Dispatch(ctx context.Context, cond Condition) model.Alert {
	eventID := cond.EventID()
	ctx, span := tracer.Start(ctx, "alert.Dispatch", trace.WithAttributes(attribute.Int64("event.id", int64(eventID))))
	defer span.End()

	a := cond.Render(d.eventName(ctx, eventID))
	a.CreatedAt = d.clock.Now()
	span.SetAttributes(attribute.String("alert.type", string(a.Type)), attribute.String("alert.severity", a.Severity))

	l := d.log.With().Uint64("event_id", eventID).Str("type", string(a.Type)).Logger()
	if err := d.alerts.Create(ctx, &a); err != nil {
		metrics.AlertPersistFailuresTotal.Inc()
		span.RecordError(err)
		l.Error().Err(err).Msg("persist alert failed")
	} else if d.cache != nil {
		if err := d.cache.InvalidateAlerts(ctx, eventID); err != nil {
			l.Warn().Err(err).Msg("purge cached alert history failed")
		}
	}

	msg := room.AlertBroadcast{
		EventID:    eventID,
		AlertType:  string(a.Type),
		Severity:   a.Severity,
		Title:      a.Title,
		Message:    a.Message,
		Timestamp:  a.CreatedAt,
		ZoneID:     a.ZoneID,
		IncidentID: a.IncidentID,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
	}
	if a.ID != 0 {
		id := a.ID
		msg.AlertID = &id
	}
	delivered := d.rooms.Publish(msg)
	metrics.AlertsDispatchedTotal.WithLabelValues(string(a.Type)).Inc()
	l.Info().Str("severity", a.Severity).Int("room_clients", delivered).Msg("alert dispatched")

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.notifyContacts(bg, a, l)
	}()
	return a
}

func (d *Dispatcher) notifyContacts(ctx context.Context, a model.Alert, l zerolog.Logger) {
	contacts, err := d.contacts.ActiveByEvent(ctx, a.EventID)
	if err != nil {
		l.Error().Err(err).Msg("load emergency contacts failed")
		return
	}
	emails, phones := Recipients(contacts)
	if len(emails) == 0 && len(phones) == 0 {
		return
	}
	n := notify.Notice{
		AlertID: a.ID,
		EventID: a.EventID,
		Subject: a.Title,
		Body:    a.Message,
		Emails:  emails,
		Phones:  phones,
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		l.Warn().Err(err).Msg("some notifications were not delivered")
	}
}

// Wait blocks until every background notification has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Recipients partitions active contacts by channel. A contact is emailed
// when it has an address and opted into email, and texted likewise.
func Recipients(contacts []model.EmergencyContact) (emails, phones []string) {
	for _, c := range contacts {
		if !c.IsActive {
			continue
		}
		if c.Email != nil && *c.Email != "" && c.Wants(model.ChannelEmail) {
			emails = append(emails, *c.Email)
		}
		if c.Phone != nil && *c.Phone != "" && c.Wants(model.ChannelSMS) {
			phones = append(phones, *c.Phone)
		}
	}
	return emails, phones
}

func (d *Dispatcher) eventName(ctx context.Context, eventID uint64) string {
	d.mu.Lock()
	name, ok := d.names[eventID]
	d.mu.Unlock()
	if ok {
		return name
	}
	name = fmt.Sprintf("Event #%d", eventID)
	if d.events == nil {
		return name
	}
	ev, err := d.events.GetByID(ctx, eventID)
	if err != nil {
		d.log.Debug().Err(err).Uint64("event_id", eventID).Msg("event lookup failed, using id")
		return name
	}
	d.mu.Lock()
	d.names[eventID] = ev.Name
	d.mu.Unlock()
	return ev.Name
}
