package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// CheckInRepo provides data access to the checkins table and owns every
// write to zones.current_capacity. Each method runs in its own
// transaction so the check-in row and the zone counter always change
// together; callers never share a transaction across operations.
type CheckInRepo struct {
	db *sql.DB
}

// NewCheckInRepo returns a new CheckInRepo bound to the provided database.
func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error or early return.
func (r *CheckInRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ActiveCheckIn returns the attendee's open check-in, or ErrNotFound.
func (r *CheckInRepo) ActiveCheckIn(ctx context.Context, attendeeID uint64) (model.CheckIn, error) {
	const q = `SELECT id, event_id, attendee_id, zone_id, check_in_time, check_out_time
               FROM checkins WHERE attendee_id = ? AND check_out_time IS NULL LIMIT 1`
	var c model.CheckIn
	var out sql.NullTime
	err := r.db.QueryRowContext(ctx, q, attendeeID).Scan(&c.ID, &c.EventID, &c.AttendeeID, &c.ZoneID, &c.CheckInTime, &out)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CheckIn{}, ErrNotFound
	}
	if err != nil {
		return model.CheckIn{}, err
	}
	if out.Valid {
		t := out.Time
		c.CheckOutTime = &t
	}
	return c, nil
}

// RecordCheckIn inserts an open check-in and increments the zone counter
// in one transaction, returning the zone as the transaction left it. A
// second open check-in for the same attendee violates the open_marker
// unique key and is reported as ErrConflict.
func (r *CheckInRepo) RecordCheckIn(ctx context.Context, c *model.CheckIn) (model.Zone, error) {
	var zone model.Zone
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO checkins (event_id, attendee_id, zone_id, check_in_time) VALUES (?, ?, ?, ?)`,
			c.EventID, c.AttendeeID, c.ZoneID, c.CheckInTime.UTC(),
		)
		if err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE zones SET current_capacity = current_capacity + 1 WHERE id = ? AND event_id = ?`,
			c.ZoneID, c.EventID,
		); err != nil {
			return err
		}
		zone, err = scanZoneTx(ctx, tx, c.ZoneID)
		return err
	})
	if err != nil {
		return model.Zone{}, err
	}
	return zone, nil
}

// RecordCheckOut closes an open check-in at the given time and decrements
// the zone counter, clamped at zero. A check-in that is already closed
// yields ErrConflict.
func (r *CheckInRepo) RecordCheckOut(ctx context.Context, c *model.CheckIn, at time.Time) (model.Zone, error) {
	var zone model.Zone
	at = at.UTC()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE checkins SET check_out_time = ? WHERE id = ? AND check_out_time IS NULL`,
			at, c.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE zones SET current_capacity = GREATEST(current_capacity - 1, 0) WHERE id = ?`,
			c.ZoneID,
		); err != nil {
			return err
		}
		zone, err = scanZoneTx(ctx, tx, c.ZoneID)
		return err
	})
	if err != nil {
		return model.Zone{}, err
	}
	c.CheckOutTime = &at
	return zone, nil
}

// CloseEvent closes every open check-in of an event and resets all of its
// zones to zero. It returns the number of check-ins closed.
func (r *CheckInRepo) CloseEvent(ctx context.Context, eventID uint64, at time.Time) (int, error) {
	var closed int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE checkins SET check_out_time = ? WHERE event_id = ? AND check_out_time IS NULL`,
			at.UTC(), eventID,
		)
		if err != nil {
			return err
		}
		if closed, err = res.RowsAffected(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE zones SET current_capacity = 0 WHERE event_id = ?`, eventID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(closed), nil
}

// Trace lists attendees whose check-in into the zone happened at or after
// since, newest first.
func (r *CheckInRepo) Trace(ctx context.Context, eventID, zoneID uint64, since time.Time) ([]model.TraceEntry, error) {
	const q = `SELECT a.id, a.name, a.email, a.phone, c.check_in_time, c.check_out_time
               FROM checkins c
               JOIN attendees a ON a.id = c.attendee_id
               WHERE c.event_id = ? AND c.zone_id = ? AND c.check_in_time >= ?
               ORDER BY c.check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID, zoneID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []model.TraceEntry{}
	for rows.Next() {
		var e model.TraceEntry
		var out sql.NullTime
		if err := rows.Scan(&e.AttendeeID, &e.Name, &e.Email, &e.Phone, &e.CheckInTime, &out); err != nil {
			return nil, err
		}
		if out.Valid {
			t := out.Time
			e.CheckOutTime = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ledger bundles the repositories the capacity ledger persists through.
// Its promoted methods satisfy capacity.Store.
type Ledger struct {
	*AttendeeRepo
	*ZoneRepo
	*CheckInRepo
}

// NewLedger wires the three repositories to one database handle.
func NewLedger(db *sql.DB) Ledger {
	return Ledger{
		AttendeeRepo: NewAttendeeRepo(db),
		ZoneRepo:     NewZoneRepo(db),
		CheckInRepo:  NewCheckInRepo(db),
	}
}
