package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
)

const identityColumns = `id, email, password_hash, confirmed_at, confirmation_token, metadata, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the identity for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

// GetByEmail returns the identity for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
}

// GetByConfirmationHash returns the unconfirmed identity holding the token hash, or nil.
func (r *PostgresRepository) GetByConfirmationHash(ctx context.Context, hash string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE confirmation_token = $1`, hash)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.Identity, error) {
	var (
		i           domain.Identity
		confirmedAt sql.NullTime
		tokenHash   sql.NullString
		meta        []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&i.ID, &i.Email, &i.PasswordHash, &confirmedAt,
		&tokenHash, &meta, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if confirmedAt.Valid {
		i.ConfirmedAt = &confirmedAt.Time
	}
	i.ConfirmationHash = tokenHash.String
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &i.Metadata); err != nil {
			return nil, err
		}
	}
	return &i, nil
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	meta, err := json.Marshal(i.Metadata)
	if err != nil {
		return err
	}
	if i.Metadata == nil {
		meta = []byte("{}")
	}
	var confirmedAt sql.NullTime
	if i.ConfirmedAt != nil {
		confirmedAt = sql.NullTime{Time: *i.ConfirmedAt, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		i.ID, i.Email, i.PasswordHash, confirmedAt,
		sql.NullString{String: i.ConfirmationHash, Valid: i.ConfirmationHash != ""},
		meta, i.CreatedAt, i.UpdatedAt)
	return db.MapError(err)
}

// UpdateEmail changes the identity's email.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET email = $2, updated_at = $3 WHERE id = $1`,
		id, email, time.Now().UTC())
	if err != nil {
		return db.MapError(err)
	}
	return requireRow(res)
}

// Confirm marks the identity confirmed at the given time.
func (r *PostgresRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET confirmed_at = $2, confirmation_token = NULL, updated_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the identity.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
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
