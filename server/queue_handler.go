package server

import (
	"net/http"

	"oneradio/core/apperr"
	"oneradio/core/fetch"
	"oneradio/core/queue"

	"github.com/gorilla/mux"
)

type enqueueRequest struct {
	URL string `json:"url"`
}

// EnqueueHandler resolves a submitted URL's source and metadata, then adds
// it to the queue, opportunistically starting playback if the engine is
// idle.
func (h *APIHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		writeError(w, apperr.New(apperr.BadRequest, "missing url"))
		return
	}

	source, err := fetch.DetectSource(req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	normalized := fetch.Normalize(source, req.URL)

	meta, err := h.metadata.Resolve(r.Context(), source, normalized)
	if err != nil {
		writeError(w, err)
		return
	}

	requester := h.requesterFromContext(r.Context())

	track := h.engine.EnqueueAndMaybeStart(queue.Payload{
		Source:      source,
		URL:         normalized,
		Title:       meta.Title,
		Duration:    meta.Duration,
		Thumbnail:   meta.Thumbnail,
		RequestedBy: requester,
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{"track": track})
}

// RemoveQueueHandler removes a pending track by id.
func (h *APIHandler) RemoveQueueHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.engine.RemoveFromQueue(id) {
		writeError(w, apperr.New(apperr.NotFound, "track not in queue"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type moveRequest struct {
	Index *int `json:"index"`
}

// MoveQueueHandler relocates a pending track to a new index.
func (h *APIHandler) MoveQueueHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil || req.Index == nil {
		writeError(w, apperr.New(apperr.BadRequest, "missing or invalid index"))
		return
	}

	if !h.engine.MoveInQueue(id, *req.Index) {
		writeError(w, apperr.New(apperr.NotFound, "track not in queue"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
