package handler

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"kiosk/internal/logger"
	"kiosk/internal/repository"
	ws "kiosk/internal/service/websocket"
)

type healthResponse struct {
	Status         string    `json:"status"`
	Screen         string    `json:"screen,omitempty"`
	ScreenStatus   string    `json:"screen_status,omitempty"`
	PendingRecords int       `json:"pending_records"`
	Monitors       int       `json:"monitors"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthHandler reports the current screen and the outbox backlog.
func HealthHandler(hub *ws.HubService, records repository.RecordRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Monitors:  hub.GetClientCount(),
			Timestamp: time.Now(),
		}

		if snapshot, ok := hub.Last(); ok {
			resp.Screen = snapshot.Screen
			resp.ScreenStatus = snapshot.Status
		}

		if records != nil {
			count, err := records.CountUnsynchronized()
			if err != nil {
				logger.Error("Health check could not read the record store: %v", err)
				resp.Status = "degraded"
			}
			resp.PendingRecords = count
		}

		w.Header().Set("Content-Type", "application/json")
		if err := jsoniter.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Error writing health response: %v", err)
		}
	}
}
