package handler

import (
	"log/slog"
	"net/http"

	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
	"github.com/estevao-reis/juntos-por-mais/internal/signup"
)

// Handler serves the public registration forms.
type Handler struct {
	svc    *signup.Service
	logger *slog.Logger
}

func NewHandler(svc *signup.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type leaderRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	CPF        string `json:"cpf"`
	Phone      string `json:"phone_number"`
	RegionID   string `json:"region_id"`
	BirthDate  string `json:"birth_date"`
	Occupation string `json:"occupation"`
	Motivation string `json:"motivation"`
}

type resultResponse struct {
	httpx.Response
	Outcome string `json:"outcome,omitempty"`
}

// Leader handles POST /api/signup/leader.
func (h *Handler) Leader(w http.ResponseWriter, r *http.Request) {
	var req leaderRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	h.write(w, r, h.svc.SubmitLeaderSignup(r.Context(), signup.LeaderSignup(req)))
}

type supporterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone_number"`
	RegionID   string `json:"region_id"`
	LeaderID   string `json:"leader_id"`
	BirthDate  string `json:"birth_date"`
	Occupation string `json:"occupation"`
}

// Supporter handles POST /api/signup/supporter.
func (h *Handler) Supporter(w http.ResponseWriter, r *http.Request) {
	var req supporterRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	h.write(w, r, h.svc.RegisterSupporter(r.Context(), signup.SupporterSignup(req)))
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, res signup.Result) {
	if err := res.Err(); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resultResponse{
		Response: httpx.Response{Success: true, Message: res.Message},
		Outcome:  string(res.Outcome),
	})
}
