package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yardcraft/internal/adapter/memory"
	"yardcraft/internal/domain"
	"yardcraft/internal/http/handlers"
	"yardcraft/internal/ledger"
	"yardcraft/internal/middleware"
)

const testSecret = "router-secret"

func newTestRouter(t *testing.T, staticDir string) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	app := &handlers.App{
		Logger:    zerolog.Nop(),
		Accounts:  store,
		Redesigns: store,
		Webhooks:  store,
		Ledger:    ledger.New(store, zerolog.Nop()),
	}
	return NewRouter(app, Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
		StaticDir:      staticDir,
	}), store
}

func TestRouterHealthIsPublic(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRedirectsAnonymousToSignIn(t *testing.T) {
	h, _ := newTestRouter(t, "")
	for _, path := range []string{"/v1/usage", "/v1/redesigns"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, middleware.SignInPath, rec.Header().Get("Location"), path)
	}
}

func TestRouterRegistersAccountFromToken(t *testing.T) {
	h, store := newTestRouter(t, "")
	token, err := middleware.SignJWT(testSecret, middleware.NewTokenClaims("acct-9", "nine@example.com", domain.PlanPro, time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"limit":50`)

	acc, err := store.GetAccount(context.Background(), "acct-9")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, acc.Plan)
}

func TestRouterOptionsAndCORS(t *testing.T) {
	h, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/v1/redesigns", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"japanese-zen"`)
	assert.Contains(t, rec.Body.String(), `"max_styles":2`)
}

func TestRouterServesStaticImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "redesigns"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "redesigns", "a.png"), []byte("png"), 0o644))

	h, _ := newTestRouter(t, dir)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/redesigns/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}
