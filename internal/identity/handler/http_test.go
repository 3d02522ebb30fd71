package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/local"
	identityrepo "github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/service"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	sessionrepo "github.com/estevao-reis/juntos-por-mais/internal/session/repository"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prov := local.New(identityrepo.NewMemoryRepository(), security.NewHasher(4), nil, nil, logger)
	persons := personrepo.NewMemoryRepository()
	ctx := context.Background()
	ident, err := prov.CreateIdentity(ctx, "adm@x.com", "secret1", true, nil)
	require.NoError(t, err)
	require.NoError(t, persons.Create(ctx, &domain.Person{
		ID: "adm", AuthID: ident.ID, Role: domain.RoleAdmin, Name: "Admin", Email: "adm@x.com", CPF: "11144477735",
		CreatedAt: time.Now().UTC(),
	}))
	auth := service.NewAuthService(prov, persons, sessionrepo.NewMemoryRepository(), tokens, nil)
	return NewHandler(auth, logger)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestLogin(t *testing.T) {
	h := newHandler(t)
	rec := post(h.Login, `{"email":"adm@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.NotEmpty(t, out["access_token"])
	assert.Equal(t, service.RedirectAdmin, out["redirect"])
	assert.Equal(t, "ADMIN", out["role"])

	rec = post(h.Login, `{"email":"adm@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_Anonymous(t *testing.T) {
	rec := post(newHandler(t).Logout, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfirm_InvalidToken(t *testing.T) {
	rec := post(newHandler(t).Confirm, `{"token":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
