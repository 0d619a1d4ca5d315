package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/auth"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore/memstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

type testApp struct {
	handler http.Handler
	tokens  *auth.JWTManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Server: config.ServerConfig{RateLimit: 0},
		CORS:   config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,PATCH,PUT,DELETE,OPTIONS", AllowedHeaders: "Authorization,Content-Type"},
		FollowUp: config.FollowUpConfig{
			DefaultOffsets: "3,7,14",
			Options:        []string{"3", "3,7,14", "none"},
			Location:       time.UTC,
		},
	}

	store := memstore.New(log)
	services := NewServices(store, nil, cfg.FollowUp, log)
	tokens := auth.NewJWTManager("router-test-secret-at-least-32-characters", "salesdesk", time.Hour)

	handler, stop := NewRouter(RouterDeps{
		Config:   cfg,
		Services: services,
		Store:    store,
		Tokens:   tokens,
		Logger:   log,
	})
	t.Cleanup(func() {
		stop()
		services.Close()
		store.Close()
	})
	return &testApp{handler: handler, tokens: tokens}
}

func (a *testApp) token(t *testing.T, p domain.Principal) string {
	t.Helper()
	tok, err := a.tokens.GenerateAccessToken(p)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type listBody struct {
	Records []map[string]any `json:"records"`
	Loading bool             `json:"loading"`
}

func (a *testApp) list(t *testing.T, path, token string) listBody {
	t.Helper()
	rec := a.do(http.MethodGet, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body listBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRouter_HealthChecks(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/live", "", "").Code)
	require.Eventually(t, func() bool {
		return app.do(http.MethodGet, "/ready", "", "").Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	rec := app.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mirror.quotes")
}

func TestRouter_RejectsAnonymousAndBadTokens(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/quotes", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/quotes", "garbage", "").Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodPost, "/sales", "", `{}`).Code)
}

func TestRouter_QuoteLifecycle(t *testing.T) {
	app := newTestApp(t)
	benID := uuid.New()
	ana := app.token(t, domain.Principal{ID: uuid.New(), Name: "Ana", Role: domain.RoleSeller})
	ben := app.token(t, domain.Principal{ID: benID, Name: "Ben", Role: domain.RoleSeller})

	rec := app.do(http.MethodPost, "/quotes", ana,
		`{"client":"Acme","amount":1200,"proposalDate":"2024-01-10","followUp":"3,7,14"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Ana", created["seller"])

	require.Eventually(t, func() bool {
		return len(app.list(t, "/quotes", ana).Records) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, app.list(t, "/quotes?seller="+benID.String(), ana).Records)

	rec = app.do(http.MethodPatch, "/quotes/"+id, ben, `{"client":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPost, "/quotes/"+id+"/convert", ana, `{"product":"Widgets"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		sales := app.list(t, "/sales", ana).Records
		return len(sales) == 1 && sales[0]["quoteId"] == id
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		quotes := app.list(t, "/quotes", ana).Records
		return len(quotes) == 1 && quotes[0]["status"] == string(domain.QuoteStatusWon)
	}, 2*time.Second, 10*time.Millisecond)

	rec = app.do(http.MethodPost, "/quotes/"+id+"/convert", ana, `{"product":"Widgets"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusNoContent, app.do(http.MethodDelete, "/quotes/"+id, ana, "").Code)
	require.Eventually(t, func() bool {
		return len(app.list(t, "/quotes", ana).Records) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_SettingsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	seller := app.token(t, domain.Principal{ID: uuid.New(), Role: domain.RoleSeller})
	admin := app.token(t, domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin})

	rec := app.do(http.MethodGet, "/settings/followup", seller, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"defaultFollowUp":"3,7,14"`)

	body := `{"followUpOptions":["5","5,15,30"],"defaultFollowUp":"5,15,30"}`
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodPut, "/settings/followup", seller, body).Code)
	require.Equal(t, http.StatusOK, app.do(http.MethodPut, "/settings/followup", admin, body).Code)

	require.Eventually(t, func() bool {
		rec := app.do(http.MethodGet, "/settings/followup", seller, "")
		return strings.Contains(rec.Body.String(), `"defaultFollowUp":"5,15,30"`)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/quotes", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://crm.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t, []string{"*"}, originPatterns("*"))
	assert.Equal(t, []string{"crm.example.com", "localhost:3000"},
		originPatterns("https://crm.example.com, http://localhost:3000,"))
	assert.Nil(t, originPatterns(""))
}

func (a *testApp) graphql(t *testing.T, token, query string, vars map[string]any) map[string]any {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRouter_GraphQLRejectsAnonymous(t *testing.T) {
	app := newTestApp(t)

	body := app.graphql(t, "", `{ quotes { records { id } } }`, nil)

	errs, ok := body["errors"].([]any)
	require.True(t, ok, "expected errors, got %v", body)
	require.Len(t, errs, 1)
	ext := errs[0].(map[string]any)["extensions"].(map[string]any)
	assert.Equal(t, "UNAUTHENTICATED", ext["code"])
}

func TestRouter_GraphQLConvertAndResolveQuote(t *testing.T) {
	app := newTestApp(t)
	ana := app.token(t, domain.Principal{ID: uuid.New(), Name: "Ana", Role: domain.RoleSeller})

	body := app.graphql(t, ana, `mutation($in: CreateQuoteInput!) { createQuote(input: $in) { id seller followUpStatus } }`,
		map[string]any{"in": map[string]any{"client": "Acme", "amount": 1200, "proposalDate": "2024-01-10", "followUp": "3,7,14"}})
	require.Nil(t, body["errors"])
	created := body["data"].(map[string]any)["createQuote"].(map[string]any)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Ana", created["seller"])

	require.Eventually(t, func() bool {
		body := app.graphql(t, ana, `{ quotes { records { id } isLoading } }`, nil)
		records := body["data"].(map[string]any)["quotes"].(map[string]any)["records"].([]any)
		return len(records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	body = app.graphql(t, ana, `mutation($id: UUID!) { convertQuoteToSale(id: $id, input: {product: "Widgets"}) { id quoteId } }`,
		map[string]any{"id": id})
	require.Nil(t, body["errors"])
	sale := body["data"].(map[string]any)["convertQuoteToSale"].(map[string]any)
	assert.Equal(t, id, sale["quoteId"])

	require.Eventually(t, func() bool {
		body := app.graphql(t, ana, `{ sales { records { product quote { id client status } } } }`, nil)
		if body["errors"] != nil {
			return false
		}
		records := body["data"].(map[string]any)["sales"].(map[string]any)["records"].([]any)
		if len(records) != 1 {
			return false
		}
		q, ok := records[0].(map[string]any)["quote"].(map[string]any)
		return ok && q["id"] == id && q["client"] == "Acme" && q["status"] == string(domain.QuoteStatusWon)
	}, 2*time.Second, 10*time.Millisecond)
}
