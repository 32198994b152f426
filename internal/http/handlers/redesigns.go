package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"yardcraft/internal/domain"
	"yardcraft/internal/redesign"
)

// ContextHeader carries the UI context used for supersession.
const ContextHeader = "X-Redesign-Context"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type createRedesignResponse struct {
	Redesign   *domain.RedesignRecord  `json:"redesign"`
	RequestID  string                  `json:"request_id"`
	Attempts   int                     `json:"attempts"`
	Validation domain.ValidationResult `json:"validation"`
	Events     []domain.ProgressEvent  `json:"events"`
	Usage      *domain.LimitStatus     `json:"usage,omitempty"`
}

func (a *App) maxUpload() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (a *App) CreateRedesign(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}

	limit := a.maxUpload()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "the photo is too large")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	req, err := a.readRedesignForm(r, limit)
	if err != nil {
		a.workflowError(w, r, err)
		return
	}

	req = redesign.Normalize(req)
	if err := a.Validator.Validate(req); err != nil {
		a.workflowError(w, r, err)
		return
	}

	outcome, err := a.Orchestrator.Run(r.Context(), acc, r.Header.Get(ContextHeader), req)
	if err != nil {
		a.workflowError(w, r, err)
		return
	}

	resp := createRedesignResponse{
		Redesign:   outcome.Record,
		RequestID:  outcome.RequestID,
		Attempts:   outcome.Attempts,
		Validation: outcome.Validation,
		Events:     outcome.Events,
	}
	if status, err := a.Ledger.CheckLimit(r.Context(), acc); err != nil {
		a.Logger.Warn().Err(err).Str("account_id", acc.ID).Msg("refresh usage after redesign")
	} else {
		resp.Usage = &status
	}
	a.json(w, http.StatusCreated, resp)
}

func (a *App) readRedesignForm(r *http.Request, limit int64) (domain.RedesignRequest, error) {
	var req domain.RedesignRequest

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return req, domain.NewError(domain.KindInvalid, "a property photo is required", err)
	default:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			return req, domain.NewError(domain.KindInvalid, "could not read the photo", err)
		}
		if int64(len(data)) > limit {
			return req, domain.NewError(domain.KindInvalid, "the photo is too large", nil)
		}
		req.SourceImage = domain.Image{Data: data, MIMEType: header.Header.Get("Content-Type")}
	}

	for _, raw := range r.MultipartForm.Value["styles"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				req.Styles = append(req.Styles, domain.Style(part))
			}
		}
	}
	req.AllowStructuralChanges = formBool(r, "allow_structural_changes")
	req.LockAspectRatio = formBool(r, "lock_aspect_ratio")
	req.ClimateZone = r.FormValue("climate_zone")
	req.Density = domain.Density(r.FormValue("density"))
	return req, nil
}

func formBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.FormValue(key)))
	return err == nil && v
}

func (a *App) ListRedesigns(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := a.Redesigns.ListRedesigns(r.Context(), acc.ID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Str("account_id", acc.ID).Msg("list redesigns")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load redesigns")
		return
	}
	if items == nil {
		items = []domain.RedesignRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset})
}

func (a *App) GetRedesign(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	rec, err := a.Redesigns.GetRedesign(r.Context(), acc.ID, chi.URLParam(r, "id"))
	if err != nil {
		a.repoError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, rec)
}

// TogglePin flips the pinned flag of a redesign.
func (a *App) TogglePin(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := a.Redesigns.GetRedesign(r.Context(), acc.ID, id)
	if err != nil {
		a.repoError(w, r, err)
		return
	}
	rec, err = a.Redesigns.SetPinned(r.Context(), acc.ID, id, !rec.IsPinned)
	if err != nil {
		a.repoError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, rec)
}

func (a *App) DeleteRedesign(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := a.Redesigns.GetRedesign(r.Context(), acc.ID, id)
	if err != nil {
		a.repoError(w, r, err)
		return
	}
	if err := a.Redesigns.DeleteRedesign(r.Context(), acc.ID, id); err != nil {
		a.repoError(w, r, err)
		return
	}
	if a.Images != nil {
		a.Images.DeleteImages(r.Context(), rec)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) repoError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "redesign not found")
		return
	}
	a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("redesign repository")
	a.error(w, http.StatusInternalServerError, "internal_error", "something went wrong")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
