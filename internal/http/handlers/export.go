package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yardcraft/internal/storage"
	"yardcraft/pkg/zip"
)

// ExportRedesign streams a zip with both images and the design catalog.
func (a *App) ExportRedesign(w http.ResponseWriter, r *http.Request) {
	acc, ok := a.currentAccount(w, r)
	if !ok {
		return
	}
	if a.Objects == nil {
		a.error(w, http.StatusNotImplemented, "export_unavailable", "exports are not available")
		return
	}

	rec, err := a.Redesigns.GetRedesign(r.Context(), acc.ID, chi.URLParam(r, "id"))
	if err != nil {
		a.repoError(w, r, err)
		return
	}

	entries := make([]zip.Entry, 0, 3)
	for _, key := range []string{rec.OriginalKey, rec.RedesignedKey} {
		data, err := a.Objects.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				a.error(w, http.StatusGone, "images_missing", "the images of this redesign are no longer stored")
				return
			}
			a.Logger.Error().Err(err).Str("key", key).Msg("load redesign image")
			a.error(w, http.StatusBadGateway, "storage_unavailable", "could not load the images")
			return
		}
		entries = append(entries, zip.Entry{Name: path.Base(key), Data: data, Modified: rec.CreatedAt, Store: true})
	}

	catalog, err := json.MarshalIndent(rec.Catalog.Normalized(), "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal_error", "could not encode catalog")
		return
	}
	entries = append(entries, zip.Entry{Name: "catalog.json", Data: catalog, Modified: rec.CreatedAt})

	archive, err := zip.Archive(entries)
	if err != nil {
		a.Logger.Error().Err(err).Str("redesign_id", rec.ID).Msg("build export archive")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not build the archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="yardcraft-%s.zip"`, rec.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
