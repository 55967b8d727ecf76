package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// ZoneRepo provides data access to the zones table. current_capacity is
// never written here; only CheckInRepo changes it, inside the same
// transaction that opens or closes a check-in.
type ZoneRepo struct {
	db *sql.DB
}

// NewZoneRepo returns a new ZoneRepo bound to the provided database.
func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{db: db} }

// Create inserts a zone with a zero occupancy and assigns its id.
func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	const q = `INSERT INTO zones (event_id, name, max_capacity, current_capacity) VALUES (?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, q, z.EventID, z.Name, z.MaxCapacity)
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
	z.ID = uint64(id)
	z.CurrentCapacity = 0
	return nil
}

// ZoneInEvent loads a zone only if it belongs to eventID.
func (r *ZoneRepo) ZoneInEvent(ctx context.Context, eventID, zoneID uint64) (model.Zone, error) {
	const q = `SELECT id, event_id, name, max_capacity, current_capacity FROM zones WHERE id = ? AND event_id = ?`
	var z model.Zone
	err := r.db.QueryRowContext(ctx, q, zoneID, eventID).Scan(&z.ID, &z.EventID, &z.Name, &z.MaxCapacity, &z.CurrentCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Zone{}, ErrNotFound
	}
	if err != nil {
		return model.Zone{}, err
	}
	return z, nil
}

// ZonesByEvent lists every zone of an event ordered by id.
func (r *ZoneRepo) ZonesByEvent(ctx context.Context, eventID uint64) ([]model.Zone, error) {
	const q = `SELECT id, event_id, name, max_capacity, current_capacity FROM zones WHERE event_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	zones := []model.Zone{}
	for rows.Next() {
		var z model.Zone
		if err := rows.Scan(&z.ID, &z.EventID, &z.Name, &z.MaxCapacity, &z.CurrentCapacity); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

// scanZoneTx re-reads a zone inside tx so callers see the count their own
// transaction produced.
func scanZoneTx(ctx context.Context, tx *sql.Tx, zoneID uint64) (model.Zone, error) {
	const q = `SELECT id, event_id, name, max_capacity, current_capacity FROM zones WHERE id = ?`
	var z model.Zone
	err := tx.QueryRowContext(ctx, q, zoneID).Scan(&z.ID, &z.EventID, &z.Name, &z.MaxCapacity, &z.CurrentCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Zone{}, ErrNotFound
	}
	return z, err
}
