package server

import (
	"net/http"

	"oneradio/logger"
)

// StreamHandler implements Listener Attach: it registers a sink with the
// Fan-out Bus and copies every chunk pushed to it onto the response body
// until the client disconnects. The response is never closed from this side
// while the client stays connected.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := h.engine.AttachListener()
	defer h.engine.DetachListener(sink)

	ctx := r.Context()
	for {
		select {
		case chunk, ok := <-sink.Chan():
			if !ok {
				return
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			logger.Debug("listener disconnected")
			return
		}
	}
}
