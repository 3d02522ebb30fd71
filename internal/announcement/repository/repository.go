package repository

import (
	"context"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
)

// Repository defines persistence for announcements. Update and Delete of a
// missing row return db.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	UpdateContent(ctx context.Context, id, content string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// List returns every announcement, newest first, with AuthorName filled.
	List(ctx context.Context) ([]*domain.Announcement, error)
}
