package httpapi

import (
	"encoding/json"
	"testing"

	"github.com/valyala/fasthttp"

	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/room"
	"ttt-arena/internal/session"
	"ttt-arena/pkg/arenadto"
)

func doGet(t *testing.T, s *Server, path string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI(path)
	s.Handler(&ctx)
	return &ctx
}

func TestStats(t *testing.T) {
	rooms := room.NewStore()
	sessions := session.NewRegistry()
	queue := matchmaking.NewQueue()
	s := NewServer(rooms, sessions, queue, nil)

	sessions.Add("a")
	sessions.Add("b")
	r := rooms.Create("a", "A", room.DefaultSettings())
	if _, err := rooms.Join(r.Code, "b", "B"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := rooms.Start(r.Code); err != nil {
		t.Fatalf("Start: %v", err)
	}
	queue.EnqueueOrMatch("c", "C", 999999)

	ctx := doGet(t, s, "/api/stats")
	var got arenadto.StatsReply
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := arenadto.StatsReply{ActiveRooms: 1, PlayersOnline: 2, PlayersInQueue: 1}
	if got != want {
		t.Fatalf("stats: got %+v want %+v", got, want)
	}
}

func TestLeaderboardFallsBackToRegistry(t *testing.T) {
	sessions := session.NewRegistry()
	s := NewServer(room.NewStore(), sessions, matchmaking.NewQueue(), nil)

	sessions.Add("a")
	sessions.SetRating("a", 40)
	sessions.Add("b")
	sessions.SetRating("b", 90)

	ctx := doGet(t, s, "/api/leaderboard")
	var got []arenadto.Standing
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Points != 90 || got[1].Points != 40 {
		t.Fatalf("leaderboard: %+v", got)
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(room.NewStore(), session.NewRegistry(), matchmaking.NewQueue(), nil)
	ctx := doGet(t, s, "/health")
	var got map[string]string
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != "OK" || got["timestamp"] == "" {
		t.Fatalf("health: %+v", got)
	}
}

func TestUnknownPathAndMethod(t *testing.T) {
	s := NewServer(room.NewStore(), session.NewRegistry(), matchmaking.NewQueue(), nil)

	ctx := doGet(t, s, "/nope")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status: %d", ctx.Response.StatusCode())
	}

	var post fasthttp.RequestCtx
	post.Request.Header.SetMethod(fasthttp.MethodPost)
	post.Request.SetRequestURI("/api/stats")
	s.Handler(&post)
	if post.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("status: %d", post.Response.StatusCode())
	}
}
