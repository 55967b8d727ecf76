package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// IncidentRepo stores field incident reports.
type IncidentRepo struct {
	db *sql.DB
}

// NewIncidentRepo returns a new IncidentRepo bound to the provided database.
func NewIncidentRepo(db *sql.DB) *IncidentRepo { return &IncidentRepo{db: db} }

// Create inserts an incident with status "Reported".
func (r *IncidentRepo) Create(ctx context.Context, i *model.Incident) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	if i.Status == "" {
		i.Status = model.StatusReported
	}
	const q = `INSERT INTO incidents
               (event_id, reporter_id, incident_type, description, location_description, latitude, longitude, severity, status, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		i.EventID, i.ReporterID, i.Type, i.Description, i.LocationDescription,
		i.Latitude, i.Longitude, i.Severity, i.Status, i.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = uint64(id)
	return nil
}

const incidentColumns = `id, event_id, reporter_id, incident_type, description, location_description,
                         latitude, longitude, severity, status, created_at`

func scanIncident(row interface{ Scan(...any) error }) (model.Incident, error) {
	var i model.Incident
	err := row.Scan(&i.ID, &i.EventID, &i.ReporterID, &i.Type, &i.Description, &i.LocationDescription,
		&i.Latitude, &i.Longitude, &i.Severity, &i.Status, &i.CreatedAt)
	return i, err
}

// ListByEvent returns the incidents of an event, newest first.
func (r *IncidentRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Incident, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE event_id = ? ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	incidents := []model.Incident{}
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return incidents, nil
}

// GetInEvent loads one incident of the event. Incidents of another event
// resolve to ErrNotFound.
func (r *IncidentRepo) GetInEvent(ctx context.Context, eventID, incidentID uint64) (model.Incident, error) {
	i, err := scanIncident(r.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = ? AND event_id = ?`, incidentID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Incident{}, ErrNotFound
	}
	return i, err
}

// SetStatus moves an incident to status and returns the updated record.
// The row is re-read rather than trusting RowsAffected, which MySQL
// reports as 0 when the status is unchanged.
func (r *IncidentRepo) SetStatus(ctx context.Context, eventID, incidentID uint64, status string) (model.Incident, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE incidents SET status = ? WHERE id = ? AND event_id = ?`, status, incidentID, eventID); err != nil {
		return model.Incident{}, err
	}
	return r.GetInEvent(ctx, eventID, incidentID)
}
