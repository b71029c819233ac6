package ws

import (
	"context"
	"sync"
	"time"

	"gridvolt/internal/metrics"
)

// Manager is the registry of live charge point connections.
type Manager struct {
	mu           sync.RWMutex
	connections  map[string]*Connection
	pingInterval time.Duration
}

// NewManager builds connection manager.
func NewManager(pingInterval time.Duration) *Manager {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Manager{
		connections:  make(map[string]*Connection),
		pingInterval: pingInterval,
	}
}

// Add registers the connection for its charge point id. A reconnect replaces
// the previous entry; the old handle is abandoned, not closed.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	m.connections[conn.ChargePointID()] = conn
	count := len(m.connections)
	m.mu.Unlock()
	metrics.ObserveConnections(count)
}

// Remove gracefully closes and evicts the connection for id. Removing an
// absent id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	conn, ok := m.connections[id]
	if ok {
		delete(m.connections, id)
	}
	count := len(m.connections)
	m.mu.Unlock()

	if ok {
		conn.CloseGraceful()
	}
	metrics.ObserveConnections(count)
}

// evict drops the registry entry without closing; used when a connection
// cleans itself up. The entry may already belong to a replacement connection.
func (m *Manager) evict(conn *Connection) {
	m.mu.Lock()
	if current, ok := m.connections[conn.ChargePointID()]; ok && current == conn {
		delete(m.connections, conn.ChargePointID())
	}
	count := len(m.connections)
	m.mu.Unlock()
	metrics.ObserveConnections(count)
}

// Get returns the live handle for id. Callers treat a miss as "cannot
// deliver": drop or log, never retry.
func (m *Manager) Get(id string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	return conn, ok
}

// All returns a point-in-time snapshot of current handles.
func (m *Manager) All() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		all = append(all, conn)
	}
	return all
}

// Start runs the keepalive ping loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, conn := range m.All() {
				_ = conn.Ping()
			}
		}
	}
}
