package wsgate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ttt-arena/internal/obslog"
)

// sender delivers one outbound frame to a client connection. The gateway's
// real connections and test fakes both satisfy it.
type sender interface {
	send(ctx context.Context, v any) error
}

// Hub tracks live connections and room membership for event fan-out.
// Membership covers seated players and spectators alike.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]sender
	rooms map[string]map[string]bool // room code -> connection ids
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]sender),
		rooms: make(map[string]map[string]bool),
	}
}

func (h *Hub) Register(connID string, s sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = s
}

// Unregister drops the connection and every room membership it held.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

func (h *Hub) JoinRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]bool)
	}
	h.rooms[code][connID] = true
}

func (h *Hub) LeaveRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members := h.rooms[code]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// DropRoom forgets all membership for a torn-down room.
func (h *Hub) DropRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}

// InRoom reports whether the connection is a member (player or spectator).
func (h *Hub) InRoom(code, connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[code][connID]
}

// SendTo delivers v to a single connection. Delivery failures mean the peer
// is going away; they are logged and otherwise ignored.
func (h *Hub) SendTo(ctx context.Context, connID string, v any) {
	h.mu.RLock()
	s := h.conns[connID]
	h.mu.RUnlock()
	if s == nil {
		return
	}
	if err := s.send(ctx, v); err != nil {
		obslog.L().Debug("hub_send_error", zap.String("conn_id", connID), zap.Error(err))
	}
}

// Broadcast delivers v to every member of the room.
func (h *Hub) Broadcast(ctx context.Context, code string, v any) {
	h.mu.RLock()
	targets := make([]sender, 0, len(h.rooms[code]))
	ids := make([]string, 0, len(h.rooms[code]))
	for id := range h.rooms[code] {
		if s := h.conns[id]; s != nil {
			targets = append(targets, s)
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	for i, s := range targets {
		if err := s.send(ctx, v); err != nil {
			obslog.L().Debug("hub_broadcast_error",
				zap.String("room", code), zap.String("conn_id", ids[i]), zap.Error(err))
		}
	}
}
