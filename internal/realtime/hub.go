package realtime

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
)

// maxConnectionsPerUser caps how many dashboard sessions one user may
// hold open at once.
const maxConnectionsPerUser = 10

// Hub manages the dashboard WebSocket connections per user.
type Hub struct {
	connections map[string]map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// AddConnection registers a WebSocket connection for a user.
func (h *Hub) AddConnection(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.connections[userID]; !exists {
		h.connections[userID] = make(map[*websocket.Conn]bool)
	}
	if len(h.connections[userID]) >= maxConnectionsPerUser {
		h.logger.Warnf("Max connections reached for user %s", userID)
		return
	}
	h.connections[userID][conn] = true
	h.logger.Infof("Added WebSocket connection for user %s (total: %d)", userID, len(h.connections[userID]))
}

// RemoveConnection drops a WebSocket connection for a user.
func (h *Hub) RemoveConnection(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if conns, exists := h.connections[userID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, userID)
		}
		h.logger.Infof("Removed WebSocket connection for user %s (remaining: %d)", userID, len(conns))
	}
}

// SendToUser pushes a message to all of a user's open connections.
// Connections that fail to write are dropped.
func (h *Hub) SendToUser(userID string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	conns, exists := h.connections[userID]
	if !exists {
		return
	}
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Errorf("Failed to send WebSocket message to user %s: %v", userID, err)
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(h.connections, userID)
	}
}
