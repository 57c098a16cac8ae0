package rpc

import (
	"fmt"
	"sync"
)

// ConnectionHub indexes live connections by id.
type ConnectionHub struct {
	mu          sync.RWMutex
	connections map[string]Connection
}

func NewConnectionHub() *ConnectionHub {
	return &ConnectionHub{connections: make(map[string]Connection)}
}

func (h *ConnectionHub) Add(conn Connection) error {
	if conn == nil {
		return fmt.Errorf("connection cannot be nil")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ConnectionID()
	if _, ok := h.connections[id]; ok {
		return fmt.Errorf("connection %s already exists", id)
	}
	h.connections[id] = conn
	return nil
}

// Get returns nil for unknown ids.
func (h *ConnectionHub) Get(id string) Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connections[id]
}

func (h *ConnectionHub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}

func (h *ConnectionHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast writes message to every connection and returns how many
// accepted it.
func (h *ConnectionHub) Broadcast(message []byte) int {
	h.mu.RLock()
	conns := make([]Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if c.Write(message) {
			sent++
		}
	}
	return sent
}
