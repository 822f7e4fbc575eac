package server

import (
	"net/http"
	"strconv"

	"oneradio/core/apperr"
)

const historyPageSize = 50

// HistoryHandler lists recently played tracks, newest first.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	rows, err := h.history.Recent(r.Context(), historyPageSize, offset)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "failed to load history", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": rows})
}
