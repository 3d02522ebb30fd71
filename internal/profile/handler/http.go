package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estevao-reis/juntos-por-mais/internal/cpf"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
	"github.com/estevao-reis/juntos-por-mais/internal/profile/service"
)

// Handler serves the profile endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// PersonJSON is the public view of a person record.
type PersonJSON struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CPF        string    `json:"cpf,omitempty"`
	Phone      string    `json:"phone_number"`
	RegionID   string    `json:"region_id,omitempty"`
	RegionName string    `json:"region_name,omitempty"`
	BirthDate  string    `json:"birth_date,omitempty"`
	Occupation string    `json:"occupation,omitempty"`
	Motivation string    `json:"motivation,omitempty"`
	LeaderID   string    `json:"leader_id,omitempty"`
	AvatarURL  string    `json:"profile_picture_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToJSON renders p. CPF is formatted for display; birth date as DD/MM/YYYY.
func ToJSON(p *domain.Person) PersonJSON {
	out := PersonJSON{
		ID:         p.ID,
		Role:       string(p.Role),
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		RegionID:   p.RegionID,
		RegionName: p.RegionName,
		Occupation: p.Occupation,
		Motivation: p.Motivation,
		LeaderID:   p.LeaderID,
		AvatarURL:  p.AvatarURL,
		CreatedAt:  p.CreatedAt,
	}
	if p.CPF != "" {
		out.CPF = cpf.Format(p.CPF)
	}
	if p.BirthDate != nil {
		out.BirthDate = p.BirthDate.Format("02/01/2006")
	}
	return out
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.svc.GetMe(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct {
		PersonJSON
		ReferralLink string `json:"referral_link,omitempty"`
	}{ToJSON(me.Person), me.ReferralLink})
}

type updateRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone_number"`
	RegionID   string `json:"region_id"`
	BirthDate  string `json:"birth_date"`
	Occupation string `json:"occupation"`
	Motivation string `json:"motivation"`
	Email      string `json:"email"`
	CPF        string `json:"cpf"`
}

// Update handles PUT /api/profiles/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	err := h.svc.UpdateProfile(r.Context(), chi.URLParam(r, "id"), service.Update{
		Name:       req.Name,
		Phone:      req.Phone,
		RegionID:   req.RegionID,
		BirthDate:  req.BirthDate,
		Occupation: req.Occupation,
		Motivation: req.Motivation,
		Email:      req.Email,
		CPF:        req.CPF,
	})
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgProfileUpdated)
}

// Referrals handles GET /api/me/referrals.
func (h *Handler) Referrals(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListReferred(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := make([]PersonJSON, 0, len(list))
	for _, p := range list {
		out = append(out, ToJSON(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// SetAvatar handles PUT /api/me/avatar.
func (h *Handler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.SetAvatarURL(r.Context(), req.URL); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgAvatarUpdated)
}

// RemoveAvatar handles DELETE /api/me/avatar.
func (h *Handler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveAvatar(r.Context()); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgAvatarRemoved)
}
