package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/topiclab/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// No auth required
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get(s.websocketPath(), s.handleWebSocket)

			r.With(s.requirePermission(auth.PermProfileRead)).Get("/data", s.handleGetData)
			r.With(s.requirePermission(auth.PermProfileManage)).Put("/data", s.handleSaveData)
			r.With(s.requirePermission(auth.PermProfileManage)).Delete("/data", s.handleDeleteData)

			r.With(s.requirePermission(auth.PermProfileRead)).Post("/variables/substitute", s.handleSubstitute)
			r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAudit)

			r.Route("/session", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermSessionRead))
					r.Get("/status", s.handleSessionStatus)
					r.Get("/subscriptions", s.handleListSubscriptions)
					r.Get("/messages", s.handleListMessages)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermSessionOperate))
					r.Post("/connect", s.handleConnect)
					r.Post("/disconnect", s.handleDisconnect)
					r.Post("/publish", s.handlePublish)
					r.Post("/subscribe", s.handleSubscribe)
					r.Post("/unsubscribe", s.handleUnsubscribe)
					r.Delete("/messages", s.handleClearMessages)
				})
			})

			r.Route("/connections/{id}", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermSessionOperate))
				r.Post("/buttons/{buttonID}/press", s.handlePressButton)
				r.Post("/subscribe-saved", s.handleSubscribeSaved)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      s.version,
		"mqtt_status":  s.session.Status(),
		"ws_clients":   s.hub.ClientCount(),
		"auth_enabled": s.authEnabled(),
	})
}

// websocketPath returns the configured WebSocket route under /api/v1.
func (s *Server) websocketPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
