package server

import (
	"net/http"
	"strconv"
)

// HealthHandler answers the liveness probe.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler returns the current StreamState snapshot.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// MeHandler reports the caller's identity (if authenticated) and whether
// they may submit tracks to the queue.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user":     nil,
			"canQueue": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     map[string]interface{}{"id": userID},
		"canQueue": h.policy.IsAllowed(strconv.FormatInt(userID, 10)),
	})
}
