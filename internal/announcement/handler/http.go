package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/announcement/service"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
)

// Handler serves the announcement endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type announcementJSON struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	Audience   string    `json:"target_audience"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toJSON(a *domain.Announcement) announcementJSON {
	return announcementJSON{
		ID:         a.ID,
		Content:    a.Content,
		AuthorID:   a.AuthorID,
		AuthorName: a.AuthorName,
		Audience:   string(a.Audience),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type contentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/announcements.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListForLeaders(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := make([]announcementJSON, 0, len(list))
	for _, a := range list {
		out = append(out, toJSON(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Create handles POST /api/admin/announcements.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.Create(r.Context(), req.Content); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, service.MsgCreated)
}

// Update handles PUT /api/admin/announcements/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.Content); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgUpdated)
}

// Delete handles DELETE /api/admin/announcements/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgDeleted)
}
