// Package orphan carries identities left behind when a signup could not undo
// its own provider write. Events are published by the signup service and
// consumed by cmd/worker, which retries the delete.
package orphan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
)

// Event describes one orphaned identity.
type Event struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// Publisher emits orphan events. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}

// LogPublisher writes events to the log only. Used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev Event) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "orphaned identity requires manual cleanup",
		"identity_id", ev.IdentityID, "email", ev.Email, "reason", ev.Reason)
	return nil
}

func (LogPublisher) Close() error { return nil }

// Deleter removes identities from the authentication provider.
type Deleter interface {
	DeleteIdentity(ctx context.Context, id string) error
}

// Reconciler retries the delete for consumed events.
type Reconciler struct {
	deleter Deleter
	logger  *slog.Logger
}

// NewReconciler returns a Reconciler deleting through d.
func NewReconciler(d Deleter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{deleter: d, logger: logger}
}

// Handle decodes a message payload and deletes the identity it names. An
// identity that is already gone counts as reconciled. Malformed payloads are
// logged and dropped so they do not block the partition.
func (r *Reconciler) Handle(ctx context.Context, payload []byte) error {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil || ev.IdentityID == "" {
		r.logger.ErrorContext(ctx, "orphan: dropping malformed event", "payload", string(payload), "error", err)
		return nil
	}
	err := r.deleter.DeleteIdentity(ctx, ev.IdentityID)
	if err != nil && !errors.Is(err, provider.ErrIdentityNotFound) {
		return err
	}
	r.logger.InfoContext(ctx, "orphan: identity reconciled", "identity_id", ev.IdentityID, "email", ev.Email)
	return nil
}
