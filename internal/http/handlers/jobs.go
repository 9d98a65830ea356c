package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/genai"
	"studio/internal/middleware"
)

type enqueueRequest struct {
	Prompt   string          `json:"prompt"`
	Settings domain.Settings `json:"settings"`
	Images   []string        `json:"images"`
}

type jobView struct {
	ID        string          `json:"id"`
	Prompt    string          `json:"prompt"`
	Settings  domain.Settings `json:"settings"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type queueView struct {
	Jobs     []jobView `json:"jobs"`
	IsBusy   bool      `json:"is_busy"`
	Advisory string    `json:"advisory,omitempty"`
	Version  uint64    `json:"version"`
}

func (a *App) JobsEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Images) > a.MaxSourceImages {
		a.error(w, http.StatusBadRequest, "too_many_images", "too many source images")
		return
	}

	images := make([]domain.SourceImage, 0, len(req.Images))
	for _, raw := range req.Images {
		img, err := domain.ParseDataURL(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_image", err.Error())
			return
		}
		images = append(images, img)
	}

	req.Settings.Normalize()
	if err := req.Settings.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_settings", err.Error())
		return
	}

	job, err := a.Queue.Enqueue(req.Prompt, req.Settings, images)
	if err != nil {
		a.queueError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, a.jobView(r, job))
}

func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Queue.Snapshot()
	if err != nil {
		a.queueError(w, err)
		return
	}
	view := queueView{
		Jobs:     make([]jobView, 0, len(snap.Jobs)),
		IsBusy:   snap.IsBusy,
		Advisory: snap.Advisory,
		Version:  snap.Version,
	}
	for _, job := range snap.Jobs {
		view.Jobs = append(view.Jobs, a.jobView(r, job))
	}
	a.json(w, http.StatusOK, view)
}

func (a *App) JobsRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Queue.Retry(id); err != nil {
		a.queueError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "pending"})
}

func (a *App) JobsCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Queue.Cancel(id); err != nil {
		a.queueError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) jobView(r *http.Request, job domain.Job) jobView {
	view := jobView{
		ID:        job.ID,
		Prompt:    job.Prompt,
		Settings:  job.Settings,
		Status:    string(job.Status),
		ErrorKind: job.ErrorKind,
		CreatedAt: job.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if job.Status == domain.JobStatusFailed {
		locale := middleware.LocaleFromContext(r.Context())
		view.Error = localizedFailure(locale, job.Error, genai.ErrorKind(job.ErrorKind))
	}
	return view
}
