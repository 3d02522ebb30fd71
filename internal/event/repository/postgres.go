package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
)

const eventColumns = `id, name, slug, event_date, description, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an event repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Slug, e.Date, sql.NullString{String: e.Description, Valid: e.Description != ""}, e.CreatedAt)
	return db.MapError(err)
}

// GetByID returns the event for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetBySlug returns the event for slug, or nil if not found.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *PostgresRepository) ListUpcoming(ctx context.Context, from time.Time) ([]*domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE event_date >= $1 ORDER BY event_date ASC`, from)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date DESC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO event_registrations (id, event_id, person_id, leader_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		reg.ID, reg.EventID, reg.PersonID, sql.NullString{String: reg.LeaderID, Valid: reg.LeaderID != ""}, reg.CreatedAt)
	return db.MapError(err)
}

func (r *PostgresRepository) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Totals(ctx context.Context) (events, registrations int, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM events), (SELECT COUNT(*) FROM event_registrations)`).
		Scan(&events, &registrations)
	return events, registrations, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*domain.Event, error) {
	var (
		e    domain.Event
		desc sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Slug, &e.Date, &desc, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Description = desc.String
	return &e, nil
}
