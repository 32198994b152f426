package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"yardcraft/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Billing-Signature"

const maxWebhookBytes = 64 << 10

type billingEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		AccountID string `json:"account_id"`
		Email     string `json:"email"`
		Plan      string `json:"plan"`
	} `json:"data"`
}

// SignPayload returns the signature header value expected for body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, body []byte, header string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// BillingWebhook applies subscription changes. Every event id is recorded
// once; redeliveries are acknowledged without side effects.
func (a *App) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	if a.WebhookSecret == "" {
		a.error(w, http.StatusServiceUnavailable, "webhooks_disabled", "billing webhooks are not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes+1))
	if err != nil || len(body) > maxWebhookBytes {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !validSignature(a.WebhookSecret, body, r.Header.Get(SignatureHeader)) {
		a.error(w, http.StatusUnauthorized, "invalid_signature", "signature mismatch")
		return
	}

	var ev billingEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ID == "" || ev.Type == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	fresh, err := a.Webhooks.MarkProcessed(r.Context(), ev.ID, ev.Type, time.Now().UTC())
	if err != nil {
		a.Logger.Error().Err(err).Str("event_id", ev.ID).Msg("record webhook event")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not record event")
		return
	}
	if !fresh {
		a.json(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	log := a.Logger.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	// A failed apply releases the event so the provider's redelivery is
	// applied instead of being acknowledged as a duplicate.
	failed := func(stage string, err error) {
		log.Error().Err(err).Msg(stage)
		if uerr := a.Webhooks.UnmarkProcessed(context.WithoutCancel(r.Context()), ev.ID); uerr != nil {
			log.Error().Err(uerr).Msg("release webhook event")
		}
		a.error(w, http.StatusInternalServerError, "internal_error", "could not apply event")
	}

	var plan domain.Plan
	switch ev.Type {
	case "subscription.created", "subscription.updated":
		plan, err = domain.ParsePlan(ev.Data.Plan)
		if err != nil {
			log.Warn().Str("plan", ev.Data.Plan).Msg("webhook carries unknown plan")
			a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
	case "subscription.deleted", "subscription.canceled":
		plan = domain.PlanFree
	default:
		log.Debug().Msg("webhook event ignored")
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	acc, err := a.webhookAccount(r, ev)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("account_id", ev.Data.AccountID).Msg("webhook for unknown account")
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		failed("resolve webhook account", err)
		return
	}

	if err := a.Accounts.SetAccountPlan(r.Context(), acc.ID, plan); err != nil {
		failed("update account plan", err)
		return
	}
	if err := a.Ledger.SetPlan(r.Context(), acc.ID, plan, false); err != nil {
		failed("sync ledger limit", err)
		return
	}

	log.Info().Str("account_id", acc.ID).Str("plan", string(plan)).Msg("plan updated from billing")
	a.json(w, http.StatusOK, map[string]string{"status": "applied", "plan": string(plan)})
}

func (a *App) webhookAccount(r *http.Request, ev billingEvent) (*domain.Account, error) {
	if ev.Data.AccountID != "" {
		acc, err := a.Accounts.GetAccount(r.Context(), ev.Data.AccountID)
		if err == nil || !errors.Is(err, domain.ErrNotFound) || ev.Data.Email == "" {
			return acc, err
		}
	}
	if ev.Data.Email == "" {
		return nil, domain.ErrNotFound
	}
	return a.Accounts.GetAccountByEmail(r.Context(), ev.Data.Email)
}
