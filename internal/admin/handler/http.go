package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estevao-reis/juntos-por-mais/internal/admin/service"
	auditdomain "github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/httpx"
	profilehandler "github.com/estevao-reis/juntos-por-mais/internal/profile/handler"
)

// Handler serves /api/admin.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := make([]profilehandler.PersonJSON, 0, len(list))
	for _, p := range list {
		out = append(out, profilehandler.ToJSON(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// UpdateRole handles PUT /api/admin/users/{id}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.UpdateUserRole(r.Context(), chi.URLParam(r, "id"), domain.Role(req.Role)); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgRoleUpdated)
}

// UpdateCore handles PUT /api/admin/users/{id}/core.
func (h *Handler) UpdateCore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		CPF   string `json:"cpf"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	err := h.svc.UpdateUserCoreInfo(r.Context(), chi.URLParam(r, "id"), service.CoreInfo{Email: req.Email, CPF: req.CPF})
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgCoreInfoUpdated)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, service.MsgUserDeleted)
}

type leaderJSON struct {
	LeaderID     string `json:"leader_id"`
	LeaderName   string `json:"leader_name"`
	PartnerCount int    `json:"partner_count"`
}

type dashboardJSON struct {
	TotalSupporters    int          `json:"total_supporters"`
	TotalLeaders       int          `json:"total_leaders"`
	TotalAdmins        int          `json:"total_admins"`
	TotalEvents        int          `json:"total_events"`
	TotalRegistrations int          `json:"total_registrations"`
	Leaders            []leaderJSON `json:"leaders"`
}

// Dashboard handles GET /api/admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context())
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := dashboardJSON{
		TotalSupporters:    d.TotalSupporters,
		TotalLeaders:       d.TotalLeaders,
		TotalAdmins:        d.TotalAdmins,
		TotalEvents:        d.TotalEvents,
		TotalRegistrations: d.TotalRegistrations,
		Leaders:            make([]leaderJSON, 0, len(d.Leaders)),
	}
	for _, l := range d.Leaders {
		out.Leaders = append(out.Leaders, leaderJSON(l))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type auditLogJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogs handles GET /api/admin/audit-logs. Filters and paging come from
// the user_id, action, resource, limit and offset query parameters.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	f := auditdomain.Filter{UserID: q.Get("user_id"), Action: q.Get("action"), Resource: q.Get("resource")}
	list, err := h.svc.ListAuditLogs(r.Context(), f, limit, offset)
	if err != nil {
		httpx.Error(w, r, h.logger, err)
		return
	}
	out := make([]auditLogJSON, 0, len(list))
	for _, a := range list {
		out = append(out, auditLogJSON(*a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
