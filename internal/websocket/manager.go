package websocket

import (
	"sync"
)

// ClientManager indexes live clients by connection and by session.
type ClientManager struct {
	clients  map[string]*Client
	sessions map[string]map[string]struct{}
	mu       sync.RWMutex
}

// NewClientManager creates a new ClientManager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:  make(map[string]*Client),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Add registers a client.
func (m *ClientManager) Add(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = client
	if client.SessionID == "" {
		return
	}
	if _, ok := m.sessions[client.SessionID]; !ok {
		m.sessions[client.SessionID] = make(map[string]struct{})
	}
	m.sessions[client.SessionID][client.ID] = struct{}{}
}

// Remove unregisters a client and closes its send channel.
func (m *ClientManager) Remove(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return
	}
	delete(m.clients, clientID)
	if ids := m.sessions[client.SessionID]; ids != nil {
		delete(ids, clientID)
		if len(ids) == 0 {
			delete(m.sessions, client.SessionID)
		}
	}
	client.Close()
}

// BySession returns all clients of a session.
func (m *ClientManager) BySession(sessionID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.sessions[sessionID]
	out := make([]*Client, 0, len(ids))
	for id := range ids {
		if c, ok := m.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// All returns every connected client.
func (m *ClientManager) All() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out
}

// Count returns the number of connected clients.
func (m *ClientManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
