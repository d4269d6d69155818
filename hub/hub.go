package hub

import (
	"log/slog"
	"sync"

	"parley-signaling-server/domain"
)

type room struct {
	members map[domain.ConnID]domain.Connection
	mu      sync.RWMutex
}

func (r *room) snapshot(exclude domain.ConnID) []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]domain.Connection, 0, len(r.members))
	for id, conn := range r.members {
		if id == exclude {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// Hub is the transport-side delivery table. It implements
// domain.Registrar and domain.Transport.
type Hub struct {
	conns map[domain.ConnID]domain.Connection
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		conns: make(map[domain.ConnID]domain.Connection),
		rooms: make(map[string]*room),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	count := len(h.conns)
	h.mu.Unlock()

	slog.Info("client connected", "clientId", conn.ID(), "clients", count)
}

func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	delete(h.conns, conn.ID())
	count := len(h.conns)
	var stale []string
	for code, r := range h.rooms {
		r.mu.Lock()
		delete(r.members, conn.ID())
		if len(r.members) == 0 {
			stale = append(stale, code)
		}
		r.mu.Unlock()
	}
	for _, code := range stale {
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	slog.Info("client disconnected", "clientId", conn.ID(), "clients", count)
}

// Mutators hold h.mu across the room mutation (lock order h.mu then
// room.mu) so a racing Unsubscribe cannot strand a member in a room
// already removed from the map.
func (h *Hub) Subscribe(id domain.ConnID, code string) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	r, exists := h.rooms[code]
	if !exists {
		r = &room{members: make(map[domain.ConnID]domain.Connection)}
		h.rooms[code] = r
	}
	r.mu.Lock()
	r.members[id] = conn
	count := len(r.members)
	r.mu.Unlock()
	h.mu.Unlock()

	slog.Debug("subscribed", "room", code, "clientId", id, "members", count)
}

func (h *Hub) Unsubscribe(id domain.ConnID, code string) {
	h.mu.Lock()
	r, exists := h.rooms[code]
	if !exists {
		h.mu.Unlock()
		return
	}

	r.mu.Lock()
	delete(r.members, id)
	count := len(r.members)
	r.mu.Unlock()

	if count == 0 {
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	if count == 0 {
		slog.Info("room removed", "room", code)
	}
}

func (h *Hub) SendTo(id domain.ConnID, ev domain.Event) bool {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	h.deliver(conn, ev)
	return true
}

// The member snapshot is taken under the lock; writes happen outside it.
func (h *Hub) BroadcastToRoom(code string, ev domain.Event, exclude domain.ConnID) int {
	h.mu.RLock()
	r, exists := h.rooms[code]
	h.mu.RUnlock()

	if !exists {
		return 0
	}

	conns := r.snapshot(exclude)
	for _, conn := range conns {
		h.deliver(conn, ev)
	}
	return len(conns)
}

// a failed send means the client stopped draining; closing the socket
// lets the read pump run the normal disconnect cleanup
func (h *Hub) deliver(conn domain.Connection, ev domain.Event) {
	if err := conn.Send(ev); err != nil {
		slog.Warn("send failed, closing connection", "clientId", conn.ID(), "error", err)
		go conn.Close()
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms), len(h.conns)
}
