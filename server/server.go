// Package server exposes the broadcast service's HTTP surface: the JSON
// control API, the raw /stream listener feed, the thumbnail proxy, and the
// minimal login/register endpoints backing the access policy.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oneradio/config"
	"oneradio/core/auth"
	"oneradio/core/engine"
	"oneradio/core/fetch"
	"oneradio/core/policy"
	"oneradio/core/statusbus"
	"oneradio/logger"
	"oneradio/model"
	"oneradio/repository"
	"oneradio/storage"

	"github.com/gorilla/mux"
)

// APIHandler holds every collaborator the HTTP layer needs. The engine is
// the only thing that owns playback state; this struct just wires requests
// to it.
type APIHandler struct {
	cfg        *config.Config
	engine     *engine.Engine
	policy     *policy.Policy
	tokens     *auth.TokenIssuer
	users      repository.UserRepository
	history    repository.PlayHistoryRepository
	thumbnails *storage.ThumbnailStore
	statusHub  *statusbus.Hub
	metadata   *fetch.MetadataResolver
}

// NewAPIHandler wires an APIHandler over its collaborators.
func NewAPIHandler(
	cfg *config.Config,
	eng *engine.Engine,
	pol *policy.Policy,
	tokens *auth.TokenIssuer,
	users repository.UserRepository,
	history repository.PlayHistoryRepository,
	thumbnails *storage.ThumbnailStore,
	statusHub *statusbus.Hub,
	metadata *fetch.MetadataResolver,
) *APIHandler {
	return &APIHandler{
		cfg:        cfg,
		engine:     eng,
		policy:     pol,
		tokens:     tokens,
		users:      users,
		history:    history,
		thumbnails: thumbnails,
		statusHub:  statusHub,
		metadata:   metadata,
	}
}

// NewRouter builds the full mux.Router for the service.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware(h.cfg.ClientOrigin))

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/status", h.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/me", h.optionalAuth(h.MeHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/queue", h.requireAuth(h.EnqueueHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/queue/{id}", h.requireAuth(h.RemoveQueueHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/queue/{id}", h.requireAuth(h.MoveQueueHandler)).Methods(http.MethodPatch)

	router.HandleFunc("/api/pause", h.requireAuth(h.PauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/skip", h.requireAuth(h.SkipHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/history", h.requireAuth(h.HistoryHandler)).Methods(http.MethodGet)

	router.HandleFunc("/stream", h.StreamHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/status", h.WSStatusHandler).Methods(http.MethodGet)

	router.HandleFunc("/youtube/thumbnail.png", h.thumbnailHandler(model.SourceYouTube)).Methods(http.MethodGet)
	router.HandleFunc("/soundcloud/thumbnail.png", h.thumbnailHandler(model.SourceSoundCloud)).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)

	return router
}

func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Start runs the HTTP server until interrupted, then shuts it down gracefully.
func Start(cfg *config.Config, h *APIHandler) {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // /stream holds the response open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shut down", logger.ErrorField(err))
	}
}
