package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

const personColumns = `p.id, p.auth_id, p.role, p.name, p.email, p.cpf, p.phone_number, p.region_id,
	COALESCE(r.name, ''), p.birth_date, p.occupation, p.motivation, p.leader_id, p.avatar_url,
	p.created_at, p.updated_at`

const personFrom = `FROM persons p LEFT JOIN regions r ON r.id = p.region_id`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a person repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the person for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	return r.getOne(ctx, `SELECT `+personColumns+` `+personFrom+` WHERE p.id = $1`, id)
}

// GetByEmail returns the person with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	return r.getOne(ctx, `SELECT `+personColumns+` `+personFrom+` WHERE p.email = $1`, email)
}

// GetByCPF returns the person with the given normalized CPF, or nil if not found.
func (r *PostgresRepository) GetByCPF(ctx context.Context, cpf string) (*domain.Person, error) {
	return r.getOne(ctx, `SELECT `+personColumns+` `+personFrom+` WHERE p.cpf = $1`, cpf)
}

// GetByAuthID returns the person linked to the authentication identity, or nil if not found.
func (r *PostgresRepository) GetByAuthID(ctx context.Context, authID string) (*domain.Person, error) {
	return r.getOne(ctx, `SELECT `+personColumns+` `+personFrom+` WHERE p.auth_id = $1`, authID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts the person. ID and timestamps must be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Person) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO persons
		(id, auth_id, role, name, email, cpf, phone_number, region_id, birth_date, occupation,
		 motivation, leader_id, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, nullString(p.AuthID), string(p.Role), p.Name, p.Email, nullString(p.CPF), p.Phone,
		nullString(p.RegionID), nullTime(p.BirthDate), nullString(p.Occupation), nullString(p.Motivation),
		nullString(p.LeaderID), nullString(p.AvatarURL), p.CreatedAt, p.UpdatedAt,
	)
	return db.MapError(err)
}

// Update applies the set fields of u to the person with the given id.
func (r *PostgresRepository) Update(ctx context.Context, id string, u domain.Update) error {
	sets := make([]string, 0, 12)
	args := make([]any, 0, 13)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Role != nil {
		add("role", string(*u.Role))
	}
	if u.AuthID != nil {
		add("auth_id", nullString(*u.AuthID))
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.CPF != nil {
		add("cpf", nullString(*u.CPF))
	}
	if u.Phone != nil {
		add("phone_number", *u.Phone)
	}
	if u.RegionID != nil {
		add("region_id", nullString(*u.RegionID))
	}
	if u.BirthDate != nil {
		if u.BirthDate.IsZero() {
			add("birth_date", nil)
		} else {
			add("birth_date", *u.BirthDate)
		}
	}
	if u.Occupation != nil {
		add("occupation", nullString(*u.Occupation))
	}
	if u.Motivation != nil {
		add("motivation", nullString(*u.Motivation))
	}
	if u.AvatarURL != nil {
		add("avatar_url", nullString(*u.AvatarURL))
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE persons SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return db.MapError(err)
	}
	return requireRow(res)
}

// Delete removes the person with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List returns all persons, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Person, error) {
	return r.list(ctx, `SELECT `+personColumns+` `+personFrom+` ORDER BY p.created_at DESC`)
}

// ListReferred returns supporters whose leader_id is leaderID, newest first.
func (r *PostgresRepository) ListReferred(ctx context.Context, leaderID string) ([]*domain.Person, error) {
	return r.list(ctx, `SELECT `+personColumns+` `+personFrom+`
		WHERE p.leader_id = $1 AND p.role = 'SUPPORTER' ORDER BY p.created_at DESC`, leaderID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Person, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByRole returns the number of persons per role.
func (r *PostgresRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM persons GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[domain.Role(role)] = n
	}
	return out, rows.Err()
}

// LeaderReferralCounts returns referred-supporter counts per leader, highest first.
func (r *PostgresRepository) LeaderReferralCounts(ctx context.Context) ([]domain.LeaderStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT l.id, l.name, COUNT(s.id)
		FROM persons l LEFT JOIN persons s ON s.leader_id = l.id AND s.role = 'SUPPORTER'
		WHERE l.role = 'LEADER'
		GROUP BY l.id, l.name
		ORDER BY COUNT(s.id) DESC, l.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.LeaderStats
	for rows.Next() {
		var s domain.LeaderStats
		if err := rows.Scan(&s.LeaderID, &s.LeaderName, &s.PartnerCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListRegions returns all regions ordered by name.
func (r *PostgresRepository) ListRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM regions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Region
	for rows.Next() {
		var reg domain.Region
		if err := rows.Scan(&reg.ID, &reg.Name); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// AddRegion inserts reg, leaving an existing row with the same id untouched.
func (r *PostgresRepository) AddRegion(ctx context.Context, reg domain.Region) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO regions (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, reg.ID, reg.Name)
	return db.MapError(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*domain.Person, error) {
	var (
		p                                             domain.Person
		role                                          string
		authID, cpf, regionID, occupation, motivation sql.NullString
		leaderID, avatarURL                           sql.NullString
		birthDate                                     sql.NullTime
	)
	err := s.Scan(&p.ID, &authID, &role, &p.Name, &p.Email, &cpf, &p.Phone, &regionID,
		&p.RegionName, &birthDate, &occupation, &motivation, &leaderID, &avatarURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	p.AuthID = authID.String
	p.CPF = cpf.String
	p.RegionID = regionID.String
	p.Occupation = occupation.String
	p.Motivation = motivation.String
	p.LeaderID = leaderID.String
	p.AvatarURL = avatarURL.String
	if birthDate.Valid {
		d := birthDate.Time
		p.BirthDate = &d
	}
	return &p, nil
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
