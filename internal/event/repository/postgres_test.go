package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
)

var eventCols = []string{"id", "name", "slug", "event_date", "description", "created_at"}

func TestPostgres_GetBySlug(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)
	when := time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM events WHERE slug = \$1`).WithArgs("caminhada").
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow("e1", "Caminhada", "caminhada", when, nil, when))
	e, err := repo.GetBySlug(context.Background(), "caminhada")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "e1", e.ID)
	assert.Empty(t, e.Description)

	mock.ExpectQuery(`FROM events WHERE slug = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	e, err = repo.GetBySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateRegistrationDuplicate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)

	mock.ExpectExec(`INSERT INTO event_registrations`).
		WithArgs("r1", "e1", "p1", nil, sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintRegistration})
	err = repo.CreateRegistration(context.Background(), &domain.Registration{ID: "r1", EventID: "e1", PersonID: "p1", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.True(t, db.ConflictOn(err, ConstraintRegistration))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListUpcoming(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE event_date >= \$1 ORDER BY event_date ASC`).WithArgs(now).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e1", "A", "a", now.Add(time.Hour), "desc", now).
			AddRow("e2", "B", "b", now.Add(2*time.Hour), nil, now))
	list, err := repo.ListUpcoming(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "desc", list[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Totals(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM events\), \(SELECT COUNT\(\*\) FROM event_registrations\)`).
		WillReturnRows(sqlmock.NewRows([]string{"events", "registrations"}).AddRow(3, 41))
	events, regs, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, events)
	assert.Equal(t, 41, regs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
