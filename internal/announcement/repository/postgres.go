package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an announcement repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the announcement. The caller must set ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Announcement) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO announcements (id, content, author_id, target_audience, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Content, sql.NullString{String: a.AuthorID, Valid: a.AuthorID != ""}, string(a.Audience), a.CreatedAt, a.UpdatedAt)
	return db.MapError(err)
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE announcements SET content = $1, updated_at = $2 WHERE id = $3`, content, at, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT a.id, a.content, a.author_id, COALESCE(p.name, ''), a.target_audience, a.created_at, a.updated_at
		FROM announcements a LEFT JOIN persons p ON p.id = a.author_id
		ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Announcement
	for rows.Next() {
		var (
			a        domain.Announcement
			authorID sql.NullString
			audience string
		)
		if err := rows.Scan(&a.ID, &a.Content, &authorID, &a.AuthorName, &audience, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.AuthorID = authorID.String
		a.Audience = domain.Audience(audience)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
