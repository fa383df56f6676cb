// Package httpapi is the read-only HTTP surface: stats, leaderboard and a
// health probe. Pure projections of core state; nothing here mutates.
package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/obslog"
	"ttt-arena/internal/room"
	"ttt-arena/internal/session"
	"ttt-arena/pkg/arenadto"
)

const leaderboardSize = 10

// LeaderboardSource serves the top standings. The Redis rating store is
// used when configured; the session registry is the fallback.
type LeaderboardSource interface {
	Top(ctx context.Context, n int) ([]arenadto.Standing, error)
}

// RegistrySource adapts the in-memory session registry to LeaderboardSource.
type RegistrySource struct {
	Registry *session.Registry
}

func (s RegistrySource) Top(_ context.Context, n int) ([]arenadto.Standing, error) {
	return s.Registry.Top(n), nil
}

type Server struct {
	rooms    *room.Store
	sessions *session.Registry
	queue    *matchmaking.Queue
	lb       LeaderboardSource
}

func NewServer(rooms *room.Store, sessions *session.Registry, queue *matchmaking.Queue, lb LeaderboardSource) *Server {
	if lb == nil {
		lb = RegistrySource{Registry: sessions}
	}
	return &Server{rooms: rooms, sessions: sessions, queue: queue, lb: lb}
}

// Handler is the fasthttp request handler.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	switch string(ctx.Path()) {
	case "/api/stats":
		s.stats(ctx)
	case "/api/leaderboard":
		s.leaderboard(ctx)
	case "/health":
		s.health(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) stats(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, arenadto.StatsReply{
		ActiveRooms:    s.rooms.ActiveCount(),
		PlayersOnline:  s.sessions.Count(),
		PlayersInQueue: s.queue.Len(),
	})
}

func (s *Server) leaderboard(ctx *fasthttp.RequestCtx) {
	top, err := s.lb.Top(ctx, leaderboardSize)
	if err != nil {
		obslog.L().Warn("leaderboard_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	if top == nil {
		top = []arenadto.Standing{}
	}
	writeJSON(ctx, top)
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}
