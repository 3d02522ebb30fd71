package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		s                 domain.Session
		revoked, lastSeen sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, auth_id, expires_at, revoked_at, last_seen_at, ip_address, created_at
		FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.AuthID, &s.ExpiresAt, &revoked, &lastSeen, &s.IPAddress, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	if lastSeen.Valid {
		s.LastSeenAt = &lastSeen.Time
	}
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, auth_id, expires_at, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5)`, s.ID, s.AuthID, s.ExpiresAt, s.IPAddress, s.CreatedAt)
	return err
}

// Revoke marks the session revoked. Revoking an already revoked or unknown session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	return err
}

// RevokeAllByAuthID revokes all open sessions of the identity.
func (r *PostgresRepository) RevokeAllByAuthID(ctx context.Context, authID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = $2 WHERE auth_id = $1 AND revoked_at IS NULL`,
		authID, time.Now().UTC())
	return err
}

// UpdateLastSeen records activity on the session.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}
