package wsgate

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"ttt-arena/internal/archive"
	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/msgcat"
	"ttt-arena/internal/room"
	"ttt-arena/internal/session"
	"ttt-arena/pkg/arenadto"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []any
}

func (f *fakeConn) send(_ context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeConn) events(typ string) []arenadto.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []arenadto.Event
	for _, v := range f.frames {
		if ev, ok := v.(arenadto.Event); ok && ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) reply(seq int64) *arenadto.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.frames {
		if rep, ok := v.(arenadto.Reply); ok && rep.Seq == seq {
			return &rep
		}
	}
	return nil
}

type fakeRatings struct {
	mu     sync.Mutex
	deltas map[string]int
}

func (f *fakeRatings) Adjust(_ context.Context, username string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deltas == nil {
		f.deltas = map[string]int{}
	}
	f.deltas[username] += delta
	return nil
}

type fakeResults struct {
	mu   sync.Mutex
	recs []*archive.Result
}

func (f *fakeResults) SaveResult(_ context.Context, rec *archive.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	return New(session.NewRegistry(), room.NewStore(), matchmaking.NewQueue(), cat, opts...)
}

func connect(g *Gateway, id string) *fakeConn {
	f := &fakeConn{}
	g.sessions.Add(id)
	g.hub.Register(id, f)
	return f
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func createAndJoin(t *testing.T, g *Gateway, host, guest *fakeConn) string {
	t.Helper()
	ctx := context.Background()
	g.dispatch(ctx, "h", &arenadto.Intent{Type: arenadto.IntentCreateRoom, Seq: 1})
	rep := host.reply(1)
	if rep == nil || !rep.OK {
		t.Fatalf("createRoom reply: %+v", rep)
	}
	code := rep.Data.(arenadto.CreateRoomReply).RoomCode

	g.dispatch(ctx, "g", &arenadto.Intent{
		Type: arenadto.IntentJoinRoom, Seq: 2,
		Data: payload(t, arenadto.JoinRoomRequest{RoomCode: code}),
	})
	if rep := guest.reply(2); rep == nil || !rep.OK {
		t.Fatalf("joinRoom reply: %+v", rep)
	}
	return code
}

func TestJoinFlowStartsGame(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)

	if got := host.events(arenadto.EventPlayerJoined); len(got) != 1 {
		t.Fatalf("host playerJoined events: %d", len(got))
	}
	for name, f := range map[string]*fakeConn{"host": host, "guest": guest} {
		evs := f.events(arenadto.EventGameStart)
		if len(evs) != 1 {
			t.Fatalf("%s gameStart events: %d", name, len(evs))
		}
		start := evs[0].Data.(arenadto.GameStartEvent)
		if start.GameState.CurrentPlayer != "h" || start.Room.Status != "active" {
			t.Fatalf("%s start payload: %+v", name, start)
		}
	}
	if sess, _ := g.sessions.Get("g"); sess.CurrentRoom != code || !sess.InGame {
		t.Fatalf("guest session not in room: %+v", sess)
	}
}

func TestFullGameOverAndSettlement(t *testing.T) {
	ratings := &fakeRatings{}
	results := &fakeResults{}
	g := newTestGateway(t, WithRatingSink(ratings), WithResultSink(results))
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	ctx := context.Background()

	seq := int64(10)
	for _, mv := range []struct {
		id   string
		cell int
	}{{"h", 0}, {"g", 3}, {"h", 1}, {"g", 4}, {"h", 2}} {
		seq++
		g.dispatch(ctx, mv.id, &arenadto.Intent{
			Type: arenadto.IntentMakeMove, Seq: seq,
			Data: payload(t, arenadto.MakeMoveRequest{RoomCode: code, CellIndex: mv.cell}),
		})
	}

	overs := guest.events(arenadto.EventGameOver)
	if len(overs) != 1 {
		t.Fatalf("gameOver events: %d", len(overs))
	}
	over := overs[0].Data.(arenadto.GameOverEvent)
	if over.Result != "win" || over.Winner != "X" || over.WinnerID != "h" {
		t.Fatalf("gameOver payload: %+v", over)
	}
	if len(guest.events(arenadto.EventMoveMade)) != 4 {
		t.Fatalf("moveMade events: %d", len(guest.events(arenadto.EventMoveMade)))
	}

	// finished room is gone; the code is no longer joinable
	if g.rooms.Get(code) != nil {
		t.Fatalf("finished room still stored")
	}
	if _, err := g.rooms.Join(code, "x", "X"); err != room.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	hostSess, _ := g.sessions.Get("h")
	guestSess, _ := g.sessions.Get("g")
	if hostSess.Rating != 25 || guestSess.Rating != 0 {
		t.Fatalf("settlement: host=%d guest=%d", hostSess.Rating, guestSess.Rating)
	}
	if ratings.deltas[hostSess.DisplayName] != 25 {
		t.Fatalf("rating sink deltas: %+v", ratings.deltas)
	}
	if len(results.recs) != 1 || results.recs[0].Winner != "X" || results.recs[0].Method != "win" {
		t.Fatalf("archive recs: %+v", results.recs)
	}
}

func TestMakeMoveRejections(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	ctx := context.Background()

	// guest out of turn
	g.dispatch(ctx, "g", &arenadto.Intent{
		Type: arenadto.IntentMakeMove, Seq: 20,
		Data: payload(t, arenadto.MakeMoveRequest{RoomCode: code, CellIndex: 0}),
	})
	if rep := guest.reply(20); rep == nil || rep.OK || rep.Error != "Not your turn" {
		t.Fatalf("invalid turn reply: %+v", rep)
	}

	// stranger without a seat
	stranger := connect(g, "s")
	g.dispatch(ctx, "s", &arenadto.Intent{
		Type: arenadto.IntentMakeMove, Seq: 21,
		Data: payload(t, arenadto.MakeMoveRequest{RoomCode: code, CellIndex: 0}),
	})
	if rep := stranger.reply(21); rep == nil || rep.OK || rep.Error == "" {
		t.Fatalf("not seated reply: %+v", rep)
	}

	// malformed payload never reaches the store
	g.dispatch(ctx, "h", &arenadto.Intent{Type: arenadto.IntentMakeMove, Seq: 22, Data: json.RawMessage(`"oops"`)})
	if rep := host.reply(22); rep == nil || rep.OK {
		t.Fatalf("bad payload reply: %+v", rep)
	}
	if g.rooms.Get(code).Game.MoveCount != 0 {
		t.Fatalf("rejected intents mutated the board")
	}
}

func TestMatchmakingPairsAndBroadcasts(t *testing.T) {
	g := newTestGateway(t)
	a := connect(g, "a")
	b := connect(g, "b")
	ctx := context.Background()

	g.dispatch(ctx, "a", &arenadto.Intent{
		Type: arenadto.IntentJoinMatchmaking, Seq: 1,
		Data: payload(t, arenadto.JoinMatchmakingRequest{Rating: 100}),
	})
	rep := a.reply(1)
	if rep == nil || !rep.OK || !rep.Data.(arenadto.MatchmakingReply).InQueue {
		t.Fatalf("first arrival should queue: %+v", rep)
	}

	g.dispatch(ctx, "b", &arenadto.Intent{
		Type: arenadto.IntentJoinMatchmaking, Seq: 2,
		Data: payload(t, arenadto.JoinMatchmakingRequest{Rating: 150}),
	})
	for name, f := range map[string]*fakeConn{"a": a, "b": b} {
		evs := f.events(arenadto.EventMatchFound)
		if len(evs) != 1 {
			t.Fatalf("%s matchFound events: %d", name, len(evs))
		}
		found := evs[0].Data.(arenadto.MatchFoundEvent)
		// the new arrival hosts as X
		if found.Room.Host != "b" || found.GameState.CurrentPlayer != "b" {
			t.Fatalf("%s matchFound payload: %+v", name, found)
		}
	}
	if g.queue.Len() != 0 {
		t.Fatalf("queue not drained: %d", g.queue.Len())
	}
}

func TestDisconnectMidGame(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	ctx := context.Background()

	g.handleDisconnect(ctx, "g")

	if got := host.events(arenadto.EventPlayerDisconnected); len(got) != 1 {
		t.Fatalf("playerDisconnected events: %d", len(got))
	}
	opps := host.events(arenadto.EventOpponentDisconnected)
	if len(opps) != 1 {
		t.Fatalf("opponentDisconnected events: %d", len(opps))
	}
	msg := opps[0].Data.(arenadto.OpponentDisconnectedEvent).Message
	if msg != "Opponent disconnected. You win by default!" {
		t.Fatalf("unexpected message: %q", msg)
	}

	if g.rooms.Get(code) != nil {
		t.Fatalf("room survived disconnect")
	}
	if _, err := g.rooms.Join(code, "x", "X"); err != room.ErrNotFound {
		t.Fatalf("want ErrNotFound after teardown, got %v", err)
	}
	if _, ok := g.sessions.Get("g"); ok {
		t.Fatalf("session survived disconnect")
	}
	// repeated teardown is harmless
	g.handleDisconnect(ctx, "g")
}

func TestDisconnectRemovesQueueEntry(t *testing.T) {
	g := newTestGateway(t)
	connect(g, "a")
	ctx := context.Background()
	g.dispatch(ctx, "a", &arenadto.Intent{
		Type: arenadto.IntentJoinMatchmaking, Seq: 1,
		Data: payload(t, arenadto.JoinMatchmakingRequest{Rating: 0}),
	})
	if g.queue.Len() != 1 {
		t.Fatalf("queue len: %d", g.queue.Len())
	}
	g.handleDisconnect(ctx, "a")
	if g.queue.Len() != 0 {
		t.Fatalf("disconnect left a queue entry")
	}
}

func TestChatRequiresMembership(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	connect(g, "o")
	ctx := context.Background()

	g.dispatch(ctx, "o", &arenadto.Intent{
		Type: arenadto.IntentChatMessage,
		Data: payload(t, arenadto.ChatMessageRequest{RoomCode: code, Message: "hi"}),
	})
	if got := host.events(arenadto.EventChatMessage); len(got) != 0 {
		t.Fatalf("outsider chat was broadcast")
	}

	g.dispatch(ctx, "g", &arenadto.Intent{
		Type: arenadto.IntentChatMessage,
		Data: payload(t, arenadto.ChatMessageRequest{RoomCode: code, Message: "gl hf"}),
	})
	msgs := host.events(arenadto.EventChatMessage)
	if len(msgs) != 1 || msgs[0].Data.(arenadto.ChatMessageEvent).Message != "gl hf" {
		t.Fatalf("chat not delivered: %+v", msgs)
	}
}

func TestSpectateFlow(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	watcher := connect(g, "w")
	ctx := context.Background()

	g.dispatch(ctx, "w", &arenadto.Intent{
		Type: arenadto.IntentSpectateRoom, Seq: 5,
		Data: payload(t, arenadto.SpectateRoomRequest{RoomCode: code}),
	})
	rep := watcher.reply(5)
	if rep == nil || !rep.OK {
		t.Fatalf("spectate reply: %+v", rep)
	}
	if got := host.events(arenadto.EventSpectatorJoined); len(got) != 1 {
		t.Fatalf("spectatorJoined events: %d", len(got))
	}

	// spectators see subsequent moves
	g.dispatch(ctx, "h", &arenadto.Intent{
		Type: arenadto.IntentMakeMove, Seq: 6,
		Data: payload(t, arenadto.MakeMoveRequest{RoomCode: code, CellIndex: 4}),
	})
	if got := watcher.events(arenadto.EventMoveMade); len(got) != 1 {
		t.Fatalf("spectator moveMade events: %d", len(got))
	}
}

func TestRestartGame(t *testing.T) {
	g := newTestGateway(t)
	host := connect(g, "h")
	guest := connect(g, "g")
	code := createAndJoin(t, g, host, guest)
	ctx := context.Background()

	g.dispatch(ctx, "h", &arenadto.Intent{
		Type: arenadto.IntentMakeMove, Seq: 3,
		Data: payload(t, arenadto.MakeMoveRequest{RoomCode: code, CellIndex: 0}),
	})
	g.dispatch(ctx, "h", &arenadto.Intent{
		Type: arenadto.IntentRestartGame,
		Data: payload(t, arenadto.RestartGameRequest{RoomCode: code}),
	})

	evs := guest.events(arenadto.EventGameRestart)
	if len(evs) != 1 {
		t.Fatalf("gameRestart events: %d", len(evs))
	}
	fresh := evs[0].Data.(arenadto.GameRestartEvent).GameState
	if fresh.MoveCount != 0 || fresh.CurrentPlayer != "h" {
		t.Fatalf("restart state: %+v", fresh)
	}
	// outsiders cannot restart rooms they are not in
	connect(g, "o")
	g.dispatch(ctx, "o", &arenadto.Intent{
		Type: arenadto.IntentRestartGame, Seq: 9,
		Data: payload(t, arenadto.RestartGameRequest{RoomCode: code}),
	})
	if g.rooms.Get(code).Game.MoveCount != 0 {
		t.Fatalf("unexpected board state")
	}
}

func TestUnknownIntent(t *testing.T) {
	g := newTestGateway(t)
	c := connect(g, "a")
	g.dispatch(context.Background(), "a", &arenadto.Intent{Type: "fly", Seq: 1})
	rep := c.reply(1)
	if rep == nil || rep.OK || rep.Error == "" {
		t.Fatalf("unknown intent reply: %+v", rep)
	}
}
