package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// MissingPersonRepo provides data access to the missing_persons table.
type MissingPersonRepo struct {
	db *sql.DB
}

// NewMissingPersonRepo returns a new MissingPersonRepo bound to the provided database.
func NewMissingPersonRepo(db *sql.DB) *MissingPersonRepo { return &MissingPersonRepo{db: db} }

const missingPersonColumns = `id, event_id, name, age, description, last_seen_location, last_seen_time,
                              reporter_name, reporter_contact, status, created_at`

func scanMissingPerson(row interface{ Scan(...any) error }) (model.MissingPerson, error) {
	var (
		p   model.MissingPerson
		age sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.EventID, &p.Name, &age, &p.Description, &p.LastSeenLocation, &p.LastSeenTime,
		&p.ReporterName, &p.ReporterContact, &p.Status, &p.CreatedAt)
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	return p, err
}

// Create files a report with status Missing.
func (r *MissingPersonRepo) Create(ctx context.Context, p *model.MissingPerson) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = model.PersonMissing
	}
	const q = `INSERT INTO missing_persons
               (event_id, name, age, description, last_seen_location, last_seen_time, reporter_name, reporter_contact, status, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.EventID, p.Name, p.Age, p.Description, p.LastSeenLocation, p.LastSeenTime.UTC(),
		p.ReporterName, p.ReporterContact, p.Status, p.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByEvent returns the reports of an event, newest first.
func (r *MissingPersonRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.MissingPerson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+missingPersonColumns+` FROM missing_persons WHERE event_id = ? ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	people := []model.MissingPerson{}
	for rows.Next() {
		p, err := scanMissingPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return people, nil
}

// SetStatus marks a report Missing or Found and returns the updated record.
func (r *MissingPersonRepo) SetStatus(ctx context.Context, eventID, personID uint64, status string) (model.MissingPerson, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE missing_persons SET status = ? WHERE id = ? AND event_id = ?`, status, personID, eventID); err != nil {
		return model.MissingPerson{}, err
	}
	p, err := scanMissingPerson(r.db.QueryRowContext(ctx,
		`SELECT `+missingPersonColumns+` FROM missing_persons WHERE id = ? AND event_id = ?`, personID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.MissingPerson{}, ErrNotFound
	}
	return p, err
}
