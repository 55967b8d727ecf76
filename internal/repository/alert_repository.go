package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// AlertRepo stores alert records. Alerts are append-only; the resolved
// flag is owned by the operator console and is only read here.
type AlertRepo struct {
	db *sql.DB
}

// NewAlertRepo returns a new AlertRepo bound to the provided database.
func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

// Create inserts an alert and fills in its id. CreatedAt defaults to now
// when unset.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO alerts
               (event_id, type, severity, title, message, zone_id, incident_id, latitude, longitude, density_level, prediction, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		a.EventID, string(a.Type), a.Severity, a.Title, a.Message,
		a.ZoneID, a.IncidentID, a.Latitude, a.Longitude, a.DensityLevel, a.Prediction,
		a.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListByEvent returns the most recent alerts of an event, newest first.
// limit <= 0 means 100.
func (r *AlertRepo) ListByEvent(ctx context.Context, eventID uint64, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, event_id, type, severity, title, message, zone_id, incident_id,
                      latitude, longitude, density_level, prediction, resolved, created_at
               FROM alerts WHERE event_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	alerts := []model.Alert{}
	for rows.Next() {
		var (
			a                      model.Alert
			typ                    string
			zoneID, incidentID     sql.NullInt64
			lat, lng, densityLevel sql.NullFloat64
			prediction             sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.EventID, &typ, &a.Severity, &a.Title, &a.Message,
			&zoneID, &incidentID, &lat, &lng, &densityLevel, &prediction, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = model.AlertType(typ)
		if zoneID.Valid {
			v := uint64(zoneID.Int64)
			a.ZoneID = &v
		}
		if incidentID.Valid {
			v := uint64(incidentID.Int64)
			a.IncidentID = &v
		}
		if lat.Valid {
			a.Latitude = &lat.Float64
		}
		if lng.Valid {
			a.Longitude = &lng.Float64
		}
		if densityLevel.Valid {
			a.DensityLevel = &densityLevel.Float64
		}
		a.Prediction = prediction.String
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}
