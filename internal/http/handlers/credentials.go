package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]bool{"configured": a.Client.HasCredential()})
}

// CredentialSet stores the key and arms the gateway in one step so queued
// jobs can use it without a restart.
func (a *App) CredentialSet(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		a.error(w, http.StatusUnprocessableEntity, "empty_key", "api key is required")
		return
	}
	if err := a.Credentials.SetGeminiAPIKey(r.Context(), key); err != nil {
		a.Log.Error().Err(err).Msg("failed to persist gemini key")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store credential")
		return
	}
	a.Client.SetAPIKey(key)
	a.json(w, http.StatusOK, map[string]bool{"configured": true})
}
