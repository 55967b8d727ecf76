package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// EventRepo reads event records. Events are created and edited by the
// event management service; the monitor only needs them for naming
// alerts and centring density samples.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID loads one event. It returns ErrNotFound when the id is unknown.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT id, name, venue_name, latitude, longitude, starts_at FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.VenueName, &e.Latitude, &e.Longitude, &e.StartsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	return e, nil
}
