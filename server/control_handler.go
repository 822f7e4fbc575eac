package server

import (
	"net/http"

	"oneradio/core/apperr"
)

type pauseRequest struct {
	Paused *bool `json:"paused"`
}

// PauseHandler sets or clears the paused flag.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(r, &req); err != nil || req.Paused == nil {
		writeError(w, apperr.New(apperr.BadRequest, "missing or invalid paused"))
		return
	}

	h.engine.SetPaused(*req.Paused)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "paused": *req.Paused})
}

// SkipHandler advances past the currently playing track.
func (h *APIHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.SkipCurrent()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
