package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// RestrictedAreaRepo provides data access to the restricted_areas table.
type RestrictedAreaRepo struct {
	db *sql.DB
}

// NewRestrictedAreaRepo returns a new RestrictedAreaRepo bound to the provided database.
func NewRestrictedAreaRepo(db *sql.DB) *RestrictedAreaRepo { return &RestrictedAreaRepo{db: db} }

// Create inserts a restricted area and fills in its id.
func (r *RestrictedAreaRepo) Create(ctx context.Context, a *model.RestrictedArea) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restricted_areas (event_id, name, description, coordinates) VALUES (?, ?, ?, ?)`,
		a.EventID, a.Name, a.Description, string(a.Coordinates),
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

// ListByEvent returns the restricted areas of an event in creation order.
func (r *RestrictedAreaRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.RestrictedArea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, name, description, coordinates FROM restricted_areas WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	areas := []model.RestrictedArea{}
	for rows.Next() {
		var (
			a      model.RestrictedArea
			coords string
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.Description, &coords); err != nil {
			return nil, err
		}
		a.Coordinates = json.RawMessage(coords)
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return areas, nil
}
