package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"yardcraft/internal/domain"
	"yardcraft/internal/middleware"
	"yardcraft/internal/redesign"
	"yardcraft/internal/storage"
)

// Redesigner runs the redesign workflow for one request.
type Redesigner interface {
	Run(ctx context.Context, acc domain.Account, uiContext string, req domain.RedesignRequest) (*redesign.Outcome, error)
}

// UsageLedger exposes the ledger operations used by the HTTP layer.
type UsageLedger interface {
	CheckLimit(ctx context.Context, acc domain.Account) (domain.LimitStatus, error)
	SetPlan(ctx context.Context, accountID string, plan domain.Plan, resetUsage bool) error
}

// ImageCleaner removes the stored images of a deleted redesign.
type ImageCleaner interface {
	DeleteImages(ctx context.Context, rec *domain.RedesignRecord)
}

type App struct {
	Logger       zerolog.Logger
	Accounts     domain.AccountRepository
	Redesigns    domain.RedesignRepository
	Webhooks     domain.WebhookEventRepository
	Ledger       UsageLedger
	Orchestrator Redesigner
	Validator    *redesign.RequestValidator
	Images       ImageCleaner
	Objects      storage.ObjectReader

	MaxUploadBytes int64
	WebhookSecret  string
}

const defaultMaxUploadBytes = 10 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
}

func (a *App) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Logger.Warn().Err(err).Msg("encode response")
	}
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]any{"error": errorBody{Code: code, Message: msg}})
}

// currentAccount returns the account attached by the auth middleware.
func (a *App) currentAccount(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	acc, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		w.Header().Set("Location", middleware.SignInPath)
		a.error(w, http.StatusUnauthorized, "signin_required", "sign in to continue")
		return domain.Account{}, false
	}
	return acc, true
}

// workflowError maps a workflow failure onto the response envelope.
func (a *App) workflowError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		w.Header().Set("Location", middleware.SignInPath)
		a.error(w, http.StatusUnauthorized, "signin_required", "sign in to continue")
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "redesign not found")
		return
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("redesign request failed")
		a.error(w, http.StatusBadGateway, "generation_failed", domain.UserMessage(err))
		return
	}

	body := errorBody{Code: string(de.Kind), Message: domain.UserMessage(err)}
	status := http.StatusBadGateway
	switch de.Kind {
	case domain.KindQuotaExceeded:
		status = http.StatusPaymentRequired
		body.Limit = de.Limit
	case domain.KindInvalid, domain.KindValidationFailed, domain.KindGenerationBlocked:
		status = http.StatusUnprocessableEntity
	case domain.KindSuperseded:
		status = http.StatusConflict
	default:
		body.Code = "generation_failed"
		a.Logger.Error().Err(err).
			Str("kind", string(de.Kind)).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("redesign request failed")
	}
	a.json(w, status, map[string]any{"error": body})
}
