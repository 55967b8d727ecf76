package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// ContactRepo provides data access to the emergency_contacts table.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo returns a new ContactRepo bound to the provided database.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `id, event_id, name, role, phone, email, preferred_channels, is_active, created_at`

func scanContact(row interface{ Scan(...any) error }) (model.EmergencyContact, error) {
	var c model.EmergencyContact
	err := row.Scan(&c.ID, &c.EventID, &c.Name, &c.Role, &c.Phone, &c.Email, &c.PreferredChannels, &c.IsActive, &c.CreatedAt)
	return c, err
}

// Create inserts a contact. An empty channel list falls back to
// model.DefaultChannels.
func (r *ContactRepo) Create(ctx context.Context, c *model.EmergencyContact) error {
	if strings.TrimSpace(c.PreferredChannels) == "" {
		c.PreferredChannels = model.DefaultChannels
	}
	const q = `INSERT INTO emergency_contacts (event_id, name, role, phone, email, preferred_channels, is_active)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.EventID, c.Name, c.Role, c.Phone, c.Email, c.PreferredChannels, c.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListByEvent returns all contacts of an event, newest first.
func (r *ContactRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EmergencyContact, error) {
	return r.list(ctx, `SELECT `+contactColumns+` FROM emergency_contacts WHERE event_id = ? ORDER BY created_at DESC, id DESC`, eventID)
}

// ActiveByEvent returns only the contacts that should receive alerts.
func (r *ContactRepo) ActiveByEvent(ctx context.Context, eventID uint64) ([]model.EmergencyContact, error) {
	return r.list(ctx, `SELECT `+contactColumns+` FROM emergency_contacts WHERE event_id = ? AND is_active = 1 ORDER BY id`, eventID)
}

func (r *ContactRepo) list(ctx context.Context, q string, eventID uint64) ([]model.EmergencyContact, error) {
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contacts := []model.EmergencyContact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Toggle flips is_active for a contact of the event and returns the
// updated record. Contacts of another event resolve to ErrNotFound.
func (r *ContactRepo) Toggle(ctx context.Context, eventID, contactID uint64) (model.EmergencyContact, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emergency_contacts SET is_active = NOT is_active WHERE id = ? AND event_id = ?`,
		contactID, eventID,
	)
	if err != nil {
		return model.EmergencyContact{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.EmergencyContact{}, err
	} else if n == 0 {
		return model.EmergencyContact{}, ErrNotFound
	}
	c, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM emergency_contacts WHERE id = ?`, contactID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmergencyContact{}, ErrNotFound
	}
	return c, err
}
