package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yardcraft/internal/adapter/memory"
	"yardcraft/internal/domain"
	"yardcraft/internal/ledger"
	"yardcraft/internal/middleware"
	"yardcraft/internal/providers/gemini"
	"yardcraft/internal/redesign"
	"yardcraft/internal/storage"
)

type fakeRedesigner struct {
	err error
}

func (f fakeRedesigner) Run(ctx context.Context, acc domain.Account, uiContext string, req domain.RedesignRequest) (*redesign.Outcome, error) {
	return &redesign.Outcome{RequestID: "req-1"}, f.err
}

type recordingCleaner struct {
	deleted []string
}

func (c *recordingCleaner) DeleteImages(ctx context.Context, rec *domain.RedesignRecord) {
	c.deleted = append(c.deleted, rec.ID)
}

type testEnv struct {
	app   *App
	store *memory.Store
	acc   domain.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewStore()
	svc := ledger.New(store, logger)

	files, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	require.NoError(t, err)
	gateway := redesign.NewGateway(files, store, svc, logger)
	orch := redesign.NewOrchestrator(redesign.Deps{
		Ledger:    svc,
		Generator: gemini.NewSyntheticGenerator(logger),
		Validator: gemini.SyntheticValidator{},
		Persister: gateway,
	}, logger)

	rv, err := redesign.NewRequestValidator()
	require.NoError(t, err)

	acc := domain.Account{ID: "acct-1", Email: "gardener@example.com", Plan: domain.PlanFree}
	require.NoError(t, store.UpsertAccount(context.Background(), acc))

	return &testEnv{
		app: &App{
			Logger:        logger,
			Accounts:      store,
			Redesigns:     store,
			Webhooks:      store,
			Ledger:        svc,
			Orchestrator:  orch,
			Validator:     rv,
			Images:        gateway,
			Objects:       files,
			WebhookSecret: "whsec-test",
		},
		store: store,
		acc:   acc,
	}
}

// routes mounts the handlers with the account injected directly.
func (e *testEnv) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhooks/billing", e.app.BillingWebhook)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.ContextWithAccount(req.Context(), e.acc)))
			})
		})
		r.Get("/usage", e.app.Usage)
		r.Get("/redesigns", e.app.ListRedesigns)
		r.Post("/redesigns", e.app.CreateRedesign)
		r.Get("/redesigns/{id}", e.app.GetRedesign)
		r.Get("/redesigns/{id}/export", e.app.ExportRedesign)
		r.Post("/redesigns/{id}/pin", e.app.TogglePin)
		r.Delete("/redesigns/{id}", e.app.DeleteRedesign)
	})
	return r
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.routes().ServeHTTP(rec, req)
	return rec
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, photo []byte, fields map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if photo != nil {
		part, err := mw.CreateFormFile("image", "yard.png")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/redesigns", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestCreateRedesignPersistsAndReportsUsage(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, samplePNG(t), map[string][]string{
		"styles":       {"Mediterranean", "coastal"},
		"climate_zone": {"mediterranean"},
		"density":      {"lush"},
	})
	req.Header.Set(ContextHeader, "dashboard")
	rec := env.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createRedesignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Redesign)
	assert.Equal(t, []domain.Style{"mediterranean", "coastal"}, resp.Redesign.Styles)
	assert.Equal(t, "Mediterranean", resp.Redesign.ClimateZone)
	assert.Equal(t, domain.DensityLush, resp.Redesign.Density)
	assert.True(t, strings.HasPrefix(resp.Redesign.RedesignedURL, "http://localhost:8080/static/redesigns/acct-1/"))
	assert.Equal(t, 1, resp.Attempts)
	assert.NotEmpty(t, resp.Events)

	require.NotNil(t, resp.Usage)
	assert.Equal(t, 1, resp.Usage.Used)
	assert.Equal(t, domain.FreeMonthlyLimit-1, resp.Usage.Remaining)
	assert.Equal(t, 1, env.store.RedesignCount("acct-1"))
}

func TestCreateRedesignStopsAtMonthlyLimit(t *testing.T) {
	env := newTestEnv(t)
	photo := samplePNG(t)
	fields := map[string][]string{"styles": {"modern"}}

	for i := 0; i < domain.FreeMonthlyLimit; i++ {
		rec := env.do(multipartRequest(t, photo, fields))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(multipartRequest(t, photo, fields))
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "quota_exceeded", body.Code)
	assert.Equal(t, domain.FreeMonthlyLimit, body.Limit)
	assert.Equal(t, domain.FreeMonthlyLimit, env.store.RedesignCount("acct-1"))
}

func TestCreateRedesignRejectsInvalidSelections(t *testing.T) {
	env := newTestEnv(t)
	photo := samplePNG(t)

	tests := []struct {
		name   string
		photo  []byte
		fields map[string][]string
		want   string
	}{
		{"no styles", photo, nil, "select at least one style"},
		{"too many styles", photo, map[string][]string{"styles": {"modern,coastal,tropical"}}, "select at most 2 styles"},
		{"unknown style", photo, map[string][]string{"styles": {"brutalist"}}, `unknown style "brutalist"`},
		{"bad density", photo, map[string][]string{"styles": {"modern"}, "density": {"dense"}}, "density must be one of minimal, balanced or lush"},
		{"missing photo", nil, map[string][]string{"styles": {"modern"}}, "a property photo is required"},
		{"not an image", []byte("plain text, not a photo"), map[string][]string{"styles": {"modern"}}, "the photo must be a PNG, JPEG or WebP image"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(multipartRequest(t, tc.photo, tc.fields))
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "invalid_request", body.Code)
			assert.Equal(t, tc.want, body.Message)
		})
	}
	assert.Zero(t, env.store.RedesignCount("acct-1"))
}

func TestCreateRedesignMapsWorkflowErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation failed", domain.NewError(domain.KindValidationFailed, "rejected", nil), http.StatusUnprocessableEntity, "validation_failed"},
		{"blocked", domain.NewError(domain.KindGenerationBlocked, "SAFETY", nil), http.StatusUnprocessableEntity, "generation_blocked"},
		{"superseded", domain.NewError(domain.KindSuperseded, "newer request", nil), http.StatusConflict, "superseded"},
		{"upload failed", domain.NewError(domain.KindUploadFailed, "s3 down", nil), http.StatusBadGateway, "generation_failed"},
		{"foreign error", errors.New("boom"), http.StatusBadGateway, "generation_failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.app.Orchestrator = fakeRedesigner{err: tc.err}

			rec := env.do(multipartRequest(t, samplePNG(t), map[string][]string{"styles": {"modern"}}))
			assert.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, domain.UserMessage(tc.err), body.Message)
		})
	}
}

func TestUsageRequiresAccount(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.app.Usage(rec, httptest.NewRequest(http.MethodGet, "/usage", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.SignInPath, rec.Header().Get("Location"))
	assert.Equal(t, "signin_required", decodeError(t, rec).Code)
}

func TestUsageReportsLedger(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.LimitStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.FreeMonthlyLimit, status.Limit)
	assert.Equal(t, domain.FreeMonthlyLimit, status.Remaining)
	assert.False(t, status.HasReachedLimit)
}

func seedRedesign(t *testing.T, store *memory.Store, id string, created time.Time) {
	t.Helper()
	require.NoError(t, store.CreateRedesign(context.Background(), &domain.RedesignRecord{
		ID:            id,
		AccountID:     "acct-1",
		OriginalKey:   "redesigns/acct-1/" + id + "/original.png",
		RedesignedKey: "redesigns/acct-1/" + id + "/redesigned.png",
		Catalog:       domain.EmptyCatalog(),
		Styles:        []domain.Style{"modern"},
		Density:       domain.DensityBalanced,
		CreatedAt:     created,
	}))
}

func TestPinListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	cleaner := &recordingCleaner{}
	env.app.Images = cleaner
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seedRedesign(t, env.store, "older", base)
	seedRedesign(t, env.store, "newer", base.Add(time.Hour))

	rec := env.do(httptest.NewRequest(http.MethodPost, "/redesigns/older/pin", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var pinned domain.RedesignRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pinned))
	assert.True(t, pinned.IsPinned)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/redesigns?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []domain.RedesignRecord `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "older", page.Items[0].ID)
	assert.Equal(t, "newer", page.Items[1].ID)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/redesigns/older/pin", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pinned))
	assert.False(t, pinned.IsPinned)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/redesigns/newer", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"newer"}, cleaner.deleted)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/redesigns/newer", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/redesigns/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, cleaner.deleted, 1)
}

func TestListRedesignsEmpty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/redesigns?limit=500&offset=-3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":20,"offset":0}`, rec.Body.String())
}

func TestResolveAccountPrefersStoredPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.SetAccountPlan(ctx, "acct-1", domain.PlanPro))

	claims := middleware.NewTokenClaims("acct-1", "new@example.com", domain.PlanFree, time.Hour)
	acc, err := env.app.ResolveAccount(ctx, &claims)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, acc.Plan)
	assert.Equal(t, "new@example.com", acc.Email)

	claims = middleware.NewTokenClaims("acct-2", "", "enterprise", time.Hour)
	acc, err = env.app.ResolveAccount(ctx, &claims)
	require.NoError(t, err)
	assert.Equal(t, "acct-2", acc.ID)
	assert.Equal(t, domain.PlanFree, acc.Plan)
}

func TestExportRedesignBundlesImagesAndCatalog(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(multipartRequest(t, samplePNG(t), map[string][]string{"styles": {"woodland"}}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created createRedesignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/redesigns/"+created.Redesign.ID+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), created.Redesign.ID)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"original.png", "redesigned.png", "catalog.json"}, names)
}

func TestExportRedesignMissingImages(t *testing.T) {
	env := newTestEnv(t)
	seedRedesign(t, env.store, "orphan", time.Now())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/redesigns/orphan/export", nil))
	assert.Equal(t, http.StatusGone, rec.Code)

	env.app.Objects = nil
	rec = env.do(httptest.NewRequest(http.MethodGet, "/redesigns/orphan/export", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
