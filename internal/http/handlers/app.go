package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/genai"
	"studio/internal/infra/credentials"
	"studio/internal/scheduler"
)

type App struct {
	Queue           *scheduler.Scheduler
	Client          *genai.Client
	Credentials     *credentials.Store
	MaxSourceImages int
	Log             zerolog.Logger
}

func NewApp(queue *scheduler.Scheduler, client *genai.Client, creds *credentials.Store, maxSourceImages int, log zerolog.Logger) *App {
	return &App{
		Queue:           queue,
		Client:          client,
		Credentials:     creds,
		MaxSourceImages: maxSourceImages,
		Log:             log,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}

// queueError maps queue failures onto HTTP statuses.
func (a *App) queueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrResultNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrJobNotRetryable):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrEmptyPrompt):
		a.error(w, http.StatusUnprocessableEntity, "empty_prompt", err.Error())
	case errors.Is(err, domain.ErrSchedulerStopped):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "queue is shutting down")
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
