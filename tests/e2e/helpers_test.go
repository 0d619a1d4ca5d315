//go:build e2e

package e2e_test

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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres/document"
	"github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/salesdesk-backend/internal/app"
	authpkg "github.com/heartmarshall/salesdesk-backend/internal/auth"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Repo   *document.Repo
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by the
// document repository on a real PostgreSQL container (shared via
// testhelper). The change listener runs for the lifetime of the test.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	repo := document.New(pool, logger, document.WithFetchTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		_ = repo.Listen(ctx, pool)
	}()

	cfg := &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: "*"},
		FollowUp: config.FollowUpConfig{
			DefaultOffsets: "3,7,14",
			Options:        []string{"3", "3,7,14", "none"},
			Location:       time.UTC,
		},
	}

	services := app.NewServices(repo, nil, cfg.FollowUp, logger)
	jwtMgr := authpkg.NewJWTManager("e2e-secret-at-least-32-characters-long", "salesdesk", 15*time.Minute)

	handler, stop := app.NewRouter(app.RouterDeps{
		Config:   cfg,
		Services: services,
		Store:    repo,
		Health:   map[string]rest.Pinger{"database": pool},
		Tokens:   jwtMgr,
		Logger:   logger,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		stop()
		services.Close()
		cancel()
		<-listenDone
		repo.Close()
	})

	return &testServer{URL: srv.URL, Client: srv.Client(), Repo: repo, jwt: jwtMgr}
}

// newSeller returns a principal with a unique id so tests sharing the
// database never see each other's records.
func newSeller(name string) domain.Principal {
	return domain.Principal{ID: uuid.New(), Name: name, Role: domain.RoleSeller}
}

func (ts *testServer) token(t *testing.T, p domain.Principal) string {
	t.Helper()
	tok, err := ts.jwt.GenerateAccessToken(p)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request and decodes the response body into a map when
// there is one.
func (ts *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// records lists path and returns its records once the mirror is loaded.
func (ts *testServer) records(t *testing.T, path, token string) []map[string]any {
	t.Helper()
	status, body := ts.do(t, http.MethodGet, path, token, "")
	require.Equal(t, http.StatusOK, status, body)

	raw, _ := body["records"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// eventually polls cond for up to five seconds. Changes travel through
// LISTEN/NOTIFY before the mirrors see them.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 25*time.Millisecond, msg)
}
