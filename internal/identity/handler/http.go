package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/service"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
)

const (
	msgSignedOut = "Sessão encerrada."
	msgConfirmed = "E-mail confirmado com sucesso! Você já pode entrar."
)

// Handler serves /api/auth.
type Handler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewHandler(auth *service.AuthService, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

type loginResponse struct {
	Success     bool      `json:"success"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Redirect    string    `json:"redirect"`
	PersonID    string    `json:"person_id,omitempty"`
	Role        string    `json:"role,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	res, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := loginResponse{Success: true, AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt, Redirect: res.Redirect}
	if res.Person != nil {
		out.PersonID, out.Role = res.Person.ID, string(res.Person.Role)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, msgSignedOut)
}

// Confirm handles POST /api/auth/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if _, err := h.auth.ConfirmEmail(r.Context(), req.Token); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, msgConfirmed)
}
