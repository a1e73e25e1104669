package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)
	cron := Chain(chain, CronAuth(h.cronSecret))
	auth := Chain(chain, JWTAuth(h.jwtSecret))

	// Health и metrics
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Служебные эндпоинты
	mux.Handle("POST /api/send-notifications", cron(http.HandlerFunc(h.SendNotifications)))
	mux.Handle("POST /api/test-email", chain(http.HandlerFunc(h.TestEmail)))
	mux.Handle("POST /api/webhooks/supabase", chain(http.HandlerFunc(h.SupabaseWebhook)))

	// Profile
	mux.Handle("GET /api/v1/profile", auth(http.HandlerFunc(h.GetProfile)))
	mux.Handle("PUT /api/v1/profile", auth(http.HandlerFunc(h.UpdateProfile)))

	// Quiet blocks
	mux.Handle("GET /api/v1/quiet-blocks", auth(http.HandlerFunc(h.ListQuietBlocks)))
	mux.Handle("POST /api/v1/quiet-blocks", auth(http.HandlerFunc(h.CreateQuietBlock)))
	mux.Handle("GET /api/v1/quiet-blocks/{id}", auth(http.HandlerFunc(h.GetQuietBlock)))
	mux.Handle("PUT /api/v1/quiet-blocks/{id}", auth(http.HandlerFunc(h.UpdateQuietBlock)))
	mux.Handle("POST /api/v1/quiet-blocks/{id}/deactivate", auth(http.HandlerFunc(h.DeactivateQuietBlock)))
	mux.Handle("DELETE /api/v1/quiet-blocks/{id}", auth(http.HandlerFunc(h.DeleteQuietBlock)))

	// Notifications
	mux.Handle("GET /api/v1/notifications", auth(http.HandlerFunc(h.ListNotifications)))
}
