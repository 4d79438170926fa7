package server

import (
	"net/http"

	"github.com/atlantislabs/atlantis/internal/api"
	"github.com/atlantislabs/atlantis/internal/api/handlers"
	"github.com/atlantislabs/atlantis/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
	SessionHandler  *handlers.SessionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Large enough for document uploads, small enough to shed abuse
	const maxBodyBytes int64 = 20 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)

		r.Post("/documents/upload", cfg.DocumentHandler.Upload)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.SessionHandler.Create)
			r.Get("/", cfg.SessionHandler.List)
			r.Get("/{sessionID}", cfg.SessionHandler.Get)
			r.Delete("/{sessionID}", cfg.SessionHandler.Delete)
			r.Get("/{sessionID}/messages", cfg.SessionHandler.ListMessages)
		})
	})

	return r
}
