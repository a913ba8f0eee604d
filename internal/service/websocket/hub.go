package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
)

// publishBuffer bounds snapshots queued between the render loop and the hub.
const publishBuffer = 16

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HubService fans screen snapshots out to connected maintenance viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan dto.MonitorSnapshot
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	last       *dto.MonitorSnapshot
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(config *config.Config, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan dto.MonitorSnapshot, publishBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

func (h *HubService) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			last := h.last
			h.mutex.Unlock()
			h.logger.Info("Monitor connected. Total: %d", h.GetClientCount())

			if last != nil {
				h.send(client, *last)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Monitor disconnected. Total: %d", h.GetClientCount())

		case snapshot := <-h.broadcast:
			h.mutex.Lock()
			h.last = &snapshot
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.Unlock()

			for _, client := range clients {
				h.send(client, snapshot)
			}
		}
	}
}

// send writes one snapshot; only the Run goroutine writes to connections.
func (h *HubService) send(client *websocket.Conn, snapshot dto.MonitorSnapshot) {
	message, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Error("Error encoding snapshot: %v", err)
		return
	}

	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Error("Error sending message: %v", err)
		h.mutex.Lock()
		delete(h.clients, client)
		h.mutex.Unlock()
		client.Close()
	}
}

func (h *HubService) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// Register blocks until the hub accepts client or ctx ends.
func (h *HubService) Register(ctx context.Context, client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *HubService) Unregister(ctx context.Context, client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-ctx.Done():
	}
}

// Publish queues a snapshot without blocking; it is dropped when the hub
// is behind.
func (h *HubService) Publish(snapshot dto.MonitorSnapshot) {
	select {
	case h.broadcast <- snapshot:
	default:
	}
}

// Last returns the most recently broadcast snapshot.
func (h *HubService) Last() (dto.MonitorSnapshot, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.last == nil {
		return dto.MonitorSnapshot{}, false
	}
	return *h.last, true
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
