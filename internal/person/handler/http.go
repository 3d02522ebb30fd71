package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
)

// RegionLister lists the administrative regions offered by the signup forms.
type RegionLister interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
}

// Handler serves the region catalogue.
type Handler struct {
	regions RegionLister
	logger  *slog.Logger
}

func NewHandler(regions RegionLister, logger *slog.Logger) *Handler {
	return &Handler{regions: regions, logger: logger}
}

type regionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Regions handles GET /api/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	list, err := h.regions.ListRegions(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, apperr.Internal(err, "Não foi possível carregar as regiões."))
		return
	}
	out := make([]regionJSON, 0, len(list))
	for _, reg := range list {
		out = append(out, regionJSON(reg))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
