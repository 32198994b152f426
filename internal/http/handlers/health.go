package handlers

import (
	"net/http"
	"time"

	"yardcraft/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Options lists the selections offered by the redesign form.
func (a *App) Options(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"styles":        domain.Styles(),
		"climate_zones": domain.ClimateZones,
		"densities":     domain.Densities,
		"max_styles":    domain.MaxStyles,
	})
}

func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	status, err := a.Ledger.CheckLimit(r.Context(), acc)
	if err != nil {
		a.Logger.Error().Err(err).Str("account_id", acc.ID).Msg("check limit")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load usage")
		return
	}
	a.json(w, http.StatusOK, status)
}
