package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/local"
	identityrepo "github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	"github.com/estevao-reis/juntos-por-mais/internal/signup"
)

func newHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persons := personrepo.NewMemoryRepository(domain.Region{ID: "r1", Name: "Centro"})
	p := local.New(identityrepo.NewMemoryRepository(), security.NewHasher(4), signup.NewMaterializer(persons), nil, logger)
	return NewHandler(signup.NewService(persons, p, nil, logger), logger)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestLeader(t *testing.T) {
	h := newHandler()
	body := `{"name":"Bia","email":"bia@x.com","password":"secret1","cpf":"529.982.247-25","phone_number":"11","region_id":"r1"}`
	rec := post(h.Leader, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, string(signup.OutcomePendingConfirmation), out["outcome"])

	rec = post(h.Leader, `{"name":"Bia","email":"bia@x.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h.Leader, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSupporter(t *testing.T) {
	h := newHandler()
	body := `{"name":"Caio","email":"caio@x.com","phone_number":"11","region_id":"r1"}`
	rec := post(h.Supporter, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(h.Supporter, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, signup.CodeEmailRegistered, out["code"])
	assert.Equal(t, false, out["success"])
}
