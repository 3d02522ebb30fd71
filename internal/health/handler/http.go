// Package handler serves the readiness probe used by load balancers and CI.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
)

const checkTimeout = 2 * time.Second

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the authorization policy evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler reports readiness. Nil checkers are skipped.
type Handler struct {
	pinger Pinger
	policy PolicyChecker
	logger *slog.Logger
}

func NewHandler(pinger Pinger, policy PolicyChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pinger: pinger, policy: policy, logger: logger}
}

type statusResponse struct {
	Status string `json:"status"`
}

// Check handles GET /healthz: 200 when every dependency answers, 503 otherwise.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()
	if h.pinger != nil {
		if err := h.pinger.PingContext(ctx); err != nil {
			h.logger.WarnContext(ctx, "health: database ping failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not_serving"})
			return
		}
	}
	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			h.logger.WarnContext(ctx, "health: policy check failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not_serving"})
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, statusResponse{Status: "serving"})
}
