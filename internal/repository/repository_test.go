package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/model"
)

func mockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestEventGetByID(t *testing.T) {
	db, mock := mockDB(t)
	starts := time.Date(2026, 7, 1, 17, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events WHERE id = ?").WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "venue_name", "latitude", "longitude", "starts_at"}).
			AddRow(2, "Summer Fest", "Harbour", 51.5, -0.12, starts))
	mock.ExpectQuery("FROM events WHERE id = ?").WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRepo(db)
	ev, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.Event{ID: 2, Name: "Summer Fest", VenueName: "Harbour", Latitude: 51.5, Longitude: -0.12, StartsAt: starts}, ev)

	_, err = repo.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZoneCreateDuplicate(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("INSERT INTO zones").WithArgs(uint64(1), "Pit", 10).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec("INSERT INTO zones").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	repo := NewZoneRepo(db)
	z := model.Zone{EventID: 1, Name: "Pit", MaxCapacity: 10}
	require.NoError(t, repo.Create(context.Background(), &z))
	assert.Equal(t, uint64(4), z.ID)

	dup := model.Zone{EventID: 1, Name: "Pit", MaxCapacity: 10}
	assert.ErrorIs(t, repo.Create(context.Background(), &dup), ErrConflict)
}

func TestZoneInEventScopesByEvent(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery("FROM zones WHERE id = \\? AND event_id = \\?").WithArgs(uint64(3), uint64(2)).
		WillReturnRows(sqlmock.NewRows(zoneCols))

	_, err := NewZoneRepo(db).ZoneInEvent(context.Background(), 2, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZonesByEvent(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery("FROM zones WHERE event_id = ?").WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(zoneCols).AddRow(1, 1, "A", 10, 2).AddRow(2, 1, "B", 5, 5))
	zones, err := NewZoneRepo(db).ZonesByEvent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, 5, zones[1].CurrentCapacity)
}

func TestAttendeeCreateRetriesTokenCollision(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("INSERT INTO attendees").WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectExec("INSERT INTO attendees").WillReturnResult(sqlmock.NewResult(12, 1))

	a := model.Attendee{EventID: 1, Name: "Ada"}
	require.NoError(t, NewAttendeeRepo(db).Create(context.Background(), &a))
	assert.Equal(t, uint64(12), a.ID)
	assert.Len(t, a.QRCode, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendeeCreateGivesUp(t *testing.T) {
	db, mock := mockDB(t)
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO attendees").WillReturnError(&mysql.MySQLError{Number: 1062})
	}
	a := model.Attendee{EventID: 1, Name: "Ada"}
	assert.ErrorIs(t, NewAttendeeRepo(db).Create(context.Background(), &a), ErrConflict)
}

func TestAttendeeByTokenTrims(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery("FROM attendees WHERE event_id = \\? AND qr_code = \\?").WithArgs(uint64(1), "abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "name", "email", "phone", "qr_code", "created_at"}).
			AddRow(9, 1, "Ada", nil, nil, "abc", time.Now()))
	a, err := NewAttendeeRepo(db).AttendeeByToken(context.Background(), 1, "  abc\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), a.ID)
}

func TestAlertCreateAndList(t *testing.T) {
	db, mock := mockDB(t)
	zone := uint64(3)
	at := time.Date(2026, 7, 1, 21, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(uint64(1), "capacity", "Warning", "t", "m", &zone, nil, nil, nil, nil, "", at).
		WillReturnResult(sqlmock.NewResult(77, 1))

	repo := NewAlertRepo(db)
	a := model.Alert{EventID: 1, Type: model.AlertCapacity, Severity: "Warning", Title: "t", Message: "m", ZoneID: &zone, CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), &a))
	assert.Equal(t, uint64(77), a.ID)

	cols := []string{"id", "event_id", "type", "severity", "title", "message", "zone_id", "incident_id",
		"latitude", "longitude", "density_level", "prediction", "resolved", "created_at"}
	mock.ExpectQuery("FROM alerts WHERE event_id = \\? ORDER BY created_at DESC").WithArgs(uint64(1), 100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(78, 1, "bottleneck", "Critical", "t2", "m2", nil, nil, 51.5, -0.12, 8.5, "soon", false, at).
			AddRow(77, 1, "capacity", "Warning", "t", "m", 3, nil, nil, nil, nil, nil, true, at))
	list, err := repo.ListByEvent(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.AlertBottleneck, list[0].Type)
	require.NotNil(t, list[0].DensityLevel)
	assert.Equal(t, 8.5, *list[0].DensityLevel)
	assert.Equal(t, "soon", list[0].Prediction)
	assert.Nil(t, list[0].ZoneID)
	require.NotNil(t, list[1].ZoneID)
	assert.Equal(t, uint64(3), *list[1].ZoneID)
	assert.True(t, list[1].Resolved)
	assert.Empty(t, list[1].Prediction)
}

func TestContactToggle(t *testing.T) {
	db, mock := mockDB(t)
	cols := []string{"id", "event_id", "name", "role", "phone", "email", "preferred_channels", "is_active", "created_at"}
	mock.ExpectExec("UPDATE emergency_contacts SET is_active = NOT is_active").WithArgs(uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM emergency_contacts WHERE id = ?").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 1, "Medic", nil, "+1", nil, "sms", false, time.Now()))
	mock.ExpectExec("UPDATE emergency_contacts SET is_active = NOT is_active").WithArgs(uint64(6), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewContactRepo(db)
	c, err := repo.Toggle(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	assert.True(t, c.Wants(model.ChannelSMS))

	_, err = repo.Toggle(context.Background(), 1, 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactCreateDefaultsChannels(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("INSERT INTO emergency_contacts").
		WithArgs(uint64(1), "Medic", nil, nil, nil, model.DefaultChannels, true).
		WillReturnResult(sqlmock.NewResult(3, 1))
	c := model.EmergencyContact{EventID: 1, Name: "Medic", IsActive: true}
	require.NoError(t, NewContactRepo(db).Create(context.Background(), &c))
	assert.Equal(t, uint64(3), c.ID)
	assert.Equal(t, model.DefaultChannels, c.PreferredChannels)
}

func TestIncidentCreateDefaultsStatus(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("INSERT INTO incidents").WillReturnResult(sqlmock.NewResult(21, 1))
	in := model.Incident{EventID: 1, ReporterID: 4, Type: "medical", Severity: model.SeverityHigh}
	require.NoError(t, NewIncidentRepo(db).Create(context.Background(), &in))
	assert.Equal(t, uint64(21), in.ID)
	assert.Equal(t, "Reported", in.Status)
	assert.False(t, in.CreatedAt.IsZero())
}
