package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/event/service"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
)

// Handler serves the event endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type eventJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Date        time.Time `json:"event_date"`
	Description string    `json:"description,omitempty"`
}

type regionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toJSON(e *domain.Event) eventJSON {
	return eventJSON{ID: e.ID, Name: e.Name, Slug: e.Slug, Date: e.Date, Description: e.Description}
}

func writeList(w http.ResponseWriter, list []*domain.Event) {
	out := make([]eventJSON, 0, len(list))
	for _, e := range list {
		out = append(out, toJSON(e))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// ListUpcoming handles GET /api/events.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListUpcoming(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	writeList(w, list)
}

// ListAll handles GET /api/admin/events.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAll(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	writeList(w, list)
}

// Page handles GET /api/events/{slug}.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	regions := make([]regionJSON, 0, len(page.Regions))
	for _, reg := range page.Regions {
		regions = append(regions, regionJSON{ID: reg.ID, Name: reg.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, struct {
		Event   eventJSON    `json:"event"`
		Regions []regionJSON `json:"regions"`
	}{toJSON(page.Event), regions})
}

type createRequest struct {
	Name        string `json:"name"`
	Date        string `json:"event_date"`
	Description string `json:"description"`
}

// Create handles POST /api/admin/events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		d, ok := domain.ParseDate(req.Date)
		if !ok {
			httpx.Error(w, r, h.logger, apperr.Validation("invalid_date", "Data do evento inválida."))
			return
		}
		date = d
	}
	if _, err := h.svc.Create(r.Context(), service.CreateInput{Name: req.Name, Date: date, Description: req.Description}); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, service.MsgCreated)
}

type registerRequest struct {
	Email    string `json:"email"`
	LeaderID string `json:"leader_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone_number"`
	RegionID string `json:"region_id"`
}

// Register handles POST /api/events/{id}/registrations.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	already, err := h.svc.Register(r.Context(), service.RegisterInput{
		EventID:  chi.URLParam(r, "id"),
		Email:    req.Email,
		LeaderID: req.LeaderID,
		Name:     req.Name,
		Phone:    req.Phone,
		RegionID: req.RegionID,
	})
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if already {
		httpx.OK(w, http.StatusOK, service.MsgAlreadyRegistered)
		return
	}
	httpx.OK(w, http.StatusCreated, service.MsgRegistered)
}
