package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/pkg/zip"
)

func (a *App) ResultsList(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Queue.Snapshot()
	if err != nil {
		a.queueError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"results": snap.Results,
		"version": snap.Version,
	})
}

func (a *App) ResultsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Queue.DeleteResult(id); err != nil {
		a.queueError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ResultsClear(w http.ResponseWriter, r *http.Request) {
	if err := a.Queue.ClearResults(); err != nil {
		a.queueError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResultsExport streams the whole gallery as one zip archive, newest first.
func (a *App) ResultsExport(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Queue.Snapshot()
	if err != nil {
		a.queueError(w, err)
		return
	}
	if len(snap.Results) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "gallery is empty")
		return
	}

	assets := make([]zip.Asset, 0, len(snap.Results))
	for i, res := range snap.Results {
		img, err := domain.ParseDataURL(res.DataURL)
		if err != nil {
			a.Log.Warn().Str("result_id", res.ID).Err(err).Msg("skipping unreadable result in export")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("result-%03d.%s", i+1, zip.ExtensionForMIME(img.MIME)),
			MIME:     img.MIME,
			Data:     img.Data,
		})
	}
	archive := zip.ArchiveAssets(assets)
	if len(archive) == 0 {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	name := fmt.Sprintf("gallery-%s.zip", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(archive)
}
