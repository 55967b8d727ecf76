package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// AttendeeRepo provides data access to the attendees table.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo returns a new AttendeeRepo bound to the provided database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{db: db} }

// randomToken generates a random hexadecimal string of length n*2. It is
// used to populate the qr_code column; 32 bytes gives a 64 character token.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create registers an attendee and issues a fresh QR token. A token
// collision within the event is retried a few times before giving up with
// ErrConflict.
func (r *AttendeeRepo) Create(ctx context.Context, a *model.Attendee) error {
	const q = `INSERT INTO attendees (event_id, name, email, phone, qr_code) VALUES (?, ?, ?, ?, ?)`
	for attempt := 0; attempt < 3; attempt++ {
		token, err := randomToken(32)
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, q, a.EventID, a.Name, a.Email, a.Phone, token)
		if err != nil {
			if isDuplicate(err) {
				continue
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		a.ID = uint64(id)
		a.QRCode = token
		return nil
	}
	return ErrConflict
}

// AttendeeByToken resolves a scanned QR token within an event. Tokens
// from another event resolve to ErrNotFound.
func (r *AttendeeRepo) AttendeeByToken(ctx context.Context, eventID uint64, token string) (model.Attendee, error) {
	const q = `SELECT id, event_id, name, email, phone, qr_code, created_at FROM attendees WHERE event_id = ? AND qr_code = ?`
	var a model.Attendee
	err := r.db.QueryRowContext(ctx, q, eventID, strings.TrimSpace(token)).
		Scan(&a.ID, &a.EventID, &a.Name, &a.Email, &a.Phone, &a.QRCode, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendee{}, ErrNotFound
	}
	if err != nil {
		return model.Attendee{}, err
	}
	return a, nil
}
