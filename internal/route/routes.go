package route

import (
	"net/http"

	"kiosk/internal/config"
	"kiosk/internal/handler"
	"kiosk/internal/logger"
	"kiosk/internal/middleware"
	"kiosk/internal/repository"
	ws "kiosk/internal/service/websocket"
)

// SetupRoutes registers the maintenance endpoints and wraps the mux with the
// API key middleware.
func SetupRoutes(hub *ws.HubService, cfg *config.Config, logger *logger.Logger, records repository.RecordRepository) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", handler.HealthHandler(hub, records, logger))

	// API endpoints
	mux.HandleFunc("/api/monitor", handler.MonitorWebsocketHandler(hub, logger))

	// Log endpoints
	mux.HandleFunc("/logs/", handler.LogsHandler(cfg, logger))

	return middleware.APIKeyMiddleware(cfg.APIKey, mux)
}
