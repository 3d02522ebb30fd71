package repository

import (
	"context"

	"github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// List returns entries matching f, newest first.
	List(ctx context.Context, f domain.Filter, limit, offset int) ([]*domain.AuditLog, error)
}
