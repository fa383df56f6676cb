// Package wsgate is the WebSocket gateway: it accepts client connections,
// validates inbound intents into typed requests, dispatches them to the
// stores, and fans authoritative events out to room members.
package wsgate

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"ttt-arena/internal/archive"
	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/msgcat"
	"ttt-arena/internal/obslog"
	"ttt-arena/internal/room"
	"ttt-arena/internal/session"
	"ttt-arena/pkg/arenadto"
)

// Rating settlement applied when a game ends.
const (
	winDelta  = 25
	lossDelta = -10
	drawDelta = 10
)

var (
	errBadPayload    = errors.New("malformed payload")
	errUnknownIntent = errors.New("unknown intent")
)

// RatingSink records settlement deltas; satisfied by rating.Store.
type RatingSink interface {
	Adjust(ctx context.Context, username string, delta int) error
}

// ResultSink retains finished games; satisfied by archive.Repository.
type ResultSink interface {
	SaveResult(ctx context.Context, rec *archive.Result) error
}

type Gateway struct {
	sessions *session.Registry
	rooms    *room.Store
	queue    *matchmaking.Queue
	hub      *Hub
	cat      *msgcat.Catalog

	ratings RatingSink
	results ResultSink
	origins []string
}

type Option func(*Gateway)

func WithRatingSink(s RatingSink) Option {
	return func(g *Gateway) { g.ratings = s }
}

func WithResultSink(s ResultSink) Option {
	return func(g *Gateway) { g.results = s }
}

func WithAllowedOrigins(origins []string) Option {
	return func(g *Gateway) { g.origins = origins }
}

func New(sessions *session.Registry, rooms *room.Store, queue *matchmaking.Queue, cat *msgcat.Catalog, opts ...Option) *Gateway {
	g := &Gateway{
		sessions: sessions,
		rooms:    rooms,
		queue:    queue,
		hub:      NewHub(),
		cat:      cat,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Hub exposes membership for the read-only HTTP surface and tests.
func (g *Gateway) Hub() *Hub { return g.hub }

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  g.origins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "closing")

	connID := uuid.NewString()
	wc := &wsConn{c: c}
	sess := g.sessions.Add(connID)
	g.hub.Register(connID, wc)
	obslog.L().Info("client_connected", zap.String("conn_id", connID), zap.String("username", sess.DisplayName))

	ctx := r.Context()
	_ = wc.send(ctx, arenadto.Event{
		Type: arenadto.EventConnected,
		Data: arenadto.ConnectedEvent{UserID: connID, Username: sess.DisplayName},
	})

	g.readLoop(ctx, connID, c)

	// the request context is gone once the read loop exits; teardown runs on
	// its own context
	g.handleDisconnect(context.Background(), connID)
	c.Close(websocket.StatusNormalClosure, "")
}

func (g *Gateway) readLoop(ctx context.Context, connID string, c *websocket.Conn) {
	for {
		var in arenadto.Intent
		if err := wsjson.Read(ctx, c, &in); err != nil {
			return
		}
		g.dispatch(ctx, connID, &in)
	}
}

// handleDisconnect runs the full teardown for a vanished connection:
// matchmaking entry, room membership, session. Safe to run for connections
// that already left everything.
func (g *Gateway) handleDisconnect(ctx context.Context, connID string) {
	g.queue.Dequeue(connID)

	if sess, ok := g.sessions.Get(connID); ok && sess.CurrentRoom != "" {
		code := sess.CurrentRoom
		if r := g.rooms.Get(code); r != nil {
			g.hub.Broadcast(ctx, code, arenadto.Event{
				Type: arenadto.EventPlayerDisconnected,
				Data: arenadto.PlayerDisconnectedEvent{PlayerID: connID, Username: sess.DisplayName},
			})
			if r.Status == room.StatusActive {
				if opp := r.Opponent(connID); opp != "" {
					g.hub.SendTo(ctx, opp, arenadto.Event{
						Type: arenadto.EventOpponentDisconnected,
						Data: arenadto.OpponentDisconnectedEvent{
							Message: g.cat.Text("event.opponent_disconnected", nil),
						},
					})
				}
			}
			g.rooms.Remove(code)
			g.hub.DropRoom(code)
			for id := range r.Players {
				g.sessions.LeaveRoom(id)
			}
		}
	}

	g.sessions.Remove(connID)
	g.hub.Unregister(connID)
	obslog.L().Info("client_disconnected", zap.String("conn_id", connID))
}

// errorText renders the user-facing message for a store error.
func (g *Gateway) errorText(err error) string {
	key := "error.bad_payload"
	switch {
	case errors.Is(err, room.ErrNotFound):
		key = "error.room_not_found"
	case errors.Is(err, room.ErrRoomFull):
		key = "error.room_full"
	case errors.Is(err, room.ErrInsufficientPlayers):
		key = "error.insufficient_players"
	case errors.Is(err, room.ErrNotActive):
		key = "error.game_not_active"
	case errors.Is(err, room.ErrNotSeated):
		key = "error.not_seated"
	case errors.Is(err, room.ErrInvalidTurn):
		key = "error.invalid_turn"
	case errors.Is(err, room.ErrCellOccupied):
		key = "error.cell_occupied"
	case errors.Is(err, room.ErrOutOfRange):
		key = "error.out_of_range"
	case errors.Is(err, room.ErrSpectatorsDisallowed):
		key = "error.spectators_disallowed"
	case errors.Is(err, errUnknownIntent):
		key = "error.unknown_intent"
	}
	return g.cat.Text(key, nil)
}
