package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"kiosk/internal/logger"
	ws "kiosk/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MonitorWebsocketHandler registers maintenance viewers in the hub so they
// receive screen snapshots.
func MonitorWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		ctx := r.Context()
		if !hub.Register(ctx, connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(ctx, connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Monitor viewer disconnected normally")
				} else {
					logger.Warning("Monitor viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
