package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO audit_logs (id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, sql.NullString{String: a.UserID, Valid: a.UserID != ""}, a.Action, a.Resource, a.IP,
		sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}, a.CreatedAt)
	return err
}

// List returns audit logs matching f, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) List(ctx context.Context, f domain.Filter, limit, offset int) ([]*domain.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct{ col, val string }{
		{"user_id", f.UserID}, {"action", f.Action}, {"resource", f.Resource},
	} {
		if c.val == "" {
			continue
		}
		args = append(args, c.val)
		where = append(where, fmt.Sprintf("%s = $%d", c.col, len(args)))
	}
	query := `SELECT id, user_id, action, resource, ip, metadata, created_at FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a            domain.AuditLog
			userID, meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &userID, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID = userID.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
