package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
)

func TestPostgres_CreateAndList(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO announcements`).
		WithArgs("a1", "Reunião sábado", "p1", "ALL_LEADERS", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, &domain.Announcement{
		ID: "a1", Content: "Reunião sábado", AuthorID: "p1", Audience: domain.AudienceAllLeaders, CreatedAt: now, UpdatedAt: now,
	}))

	mock.ExpectQuery(`FROM announcements a LEFT JOIN persons p ON p.id = a.author_id\s+ORDER BY a.created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id", "name", "target_audience", "created_at", "updated_at"}).
			AddRow("a2", "Novo", nil, "", "ALL_LEADERS", now, now).
			AddRow("a1", "Reunião sábado", "p1", "Ana", "ALL_LEADERS", now.Add(-time.Hour), now))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Empty(t, list[0].AuthorID)
	assert.Equal(t, "Ana", list[1].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateDeleteMissing(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	repo := NewPostgresRepository(conn)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE announcements SET content = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("x", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateContent(ctx, "missing", "x", time.Now()), db.ErrNotFound)

	mock.ExpectExec(`DELETE FROM announcements WHERE id = \$1`).WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
