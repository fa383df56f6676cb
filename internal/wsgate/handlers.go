package wsgate

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"ttt-arena/internal/archive"
	"ttt-arena/internal/matchmaking"
	"ttt-arena/internal/obslog"
	"ttt-arena/internal/room"
	"ttt-arena/pkg/arenadto"
)

// dispatch routes one validated intent. Intents carrying a Seq get a reply
// envelope; fire-and-forget intents only log failures.
func (g *Gateway) dispatch(ctx context.Context, connID string, in *arenadto.Intent) {
	var data any
	var err error

	switch in.Type {
	case arenadto.IntentCreateRoom:
		data, err = g.createRoom(ctx, connID, in.Data)
	case arenadto.IntentJoinRoom:
		data, err = g.joinRoom(ctx, connID, in.Data)
	case arenadto.IntentLeaveRoom:
		err = g.leaveRoom(ctx, connID)
	case arenadto.IntentJoinMatchmaking:
		data, err = g.joinMatchmaking(ctx, connID, in.Data)
	case arenadto.IntentCancelMatchmaking:
		g.queue.Dequeue(connID)
	case arenadto.IntentGetQueueStatus:
		data = g.queueStatus(connID)
	case arenadto.IntentMakeMove:
		data, err = g.makeMove(ctx, connID, in.Data)
	case arenadto.IntentRestartGame:
		err = g.restartGame(ctx, connID, in.Data)
	case arenadto.IntentChatMessage:
		err = g.chatMessage(ctx, connID, in.Data)
	case arenadto.IntentReaction:
		err = g.reaction(ctx, connID, in.Data)
	case arenadto.IntentSpectateRoom:
		data, err = g.spectateRoom(ctx, connID, in.Data)
	default:
		err = errUnknownIntent
	}

	if in.Seq == 0 {
		if err != nil {
			obslog.L().Debug("intent_rejected",
				zap.String("conn_id", connID), zap.String("intent", in.Type), zap.Error(err))
		}
		return
	}
	rep := arenadto.Reply{Type: "reply", Seq: in.Seq}
	if err != nil {
		rep.Error = g.errorText(err)
	} else {
		rep.OK = true
		rep.Data = data
	}
	g.hub.SendTo(ctx, connID, rep)
}

func decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(raw) == 0 {
		return nil, errBadPayload
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errBadPayload
	}
	return &v, nil
}

func (g *Gateway) createRoom(_ context.Context, connID string, raw json.RawMessage) (any, error) {
	settings := room.DefaultSettings()
	if len(raw) > 0 {
		req, err := decode[arenadto.CreateRoomRequest](raw)
		if err != nil {
			return nil, err
		}
		if req.AllowSpectators != nil {
			settings.AllowSpectators = *req.AllowSpectators
		}
		if req.TimerEnabled != nil {
			settings.TimerEnabled = *req.TimerEnabled
		}
		if req.TimeLimit != nil && *req.TimeLimit > 0 {
			settings.TimeLimitSeconds = *req.TimeLimit
		}
	}

	sess, ok := g.sessions.Get(connID)
	if !ok {
		return nil, errBadPayload
	}
	r := g.rooms.Create(connID, sess.DisplayName, settings)
	g.sessions.EnterRoom(connID, r.Code)
	g.hub.JoinRoom(r.Code, connID)

	obslog.L().Info("room_created",
		zap.String("room", r.Code), zap.String("host", connID), zap.String("username", sess.DisplayName))
	return arenadto.CreateRoomReply{RoomCode: r.Code, Room: roomView(r)}, nil
}

func (g *Gateway) joinRoom(ctx context.Context, connID string, raw json.RawMessage) (any, error) {
	req, err := decode[arenadto.JoinRoomRequest](raw)
	if err != nil {
		return nil, err
	}
	sess, ok := g.sessions.Get(connID)
	if !ok {
		return nil, errBadPayload
	}

	r, err := g.rooms.Join(req.RoomCode, connID, sess.DisplayName)
	if err != nil {
		return nil, err
	}
	g.sessions.EnterRoom(connID, r.Code)
	g.hub.JoinRoom(r.Code, connID)

	g.hub.SendTo(ctx, r.HostID, arenadto.Event{
		Type: arenadto.EventPlayerJoined,
		Data: arenadto.PlayerJoinedEvent{PlayerID: connID, Username: sess.DisplayName},
	})

	// both seats are filled: the game starts immediately
	gs, err := g.rooms.Start(r.Code)
	if err != nil {
		return nil, err
	}
	started := g.rooms.Get(r.Code)
	g.hub.Broadcast(ctx, r.Code, arenadto.Event{
		Type: arenadto.EventGameStart,
		Data: arenadto.GameStartEvent{Room: roomView(started), GameState: gameView(gs)},
	})

	obslog.L().Info("room_joined",
		zap.String("room", r.Code), zap.String("player", connID), zap.String("username", sess.DisplayName))
	return arenadto.JoinRoomReply{Room: roomView(started), GameState: gameView(gs)}, nil
}

func (g *Gateway) leaveRoom(ctx context.Context, connID string) error {
	sess, ok := g.sessions.Get(connID)
	if !ok || sess.CurrentRoom == "" {
		return nil
	}
	code := sess.CurrentRoom
	r := g.rooms.Get(code)
	if r == nil {
		g.sessions.LeaveRoom(connID)
		return nil
	}

	g.hub.Broadcast(ctx, code, arenadto.Event{
		Type: arenadto.EventPlayerLeft,
		Data: arenadto.PlayerLeftEvent{PlayerID: connID, Username: sess.DisplayName},
	})
	g.rooms.Remove(code)
	g.hub.DropRoom(code)
	for id := range r.Players {
		g.sessions.LeaveRoom(id)
	}
	obslog.L().Info("room_left", zap.String("room", code), zap.String("player", connID))
	return nil
}

func (g *Gateway) joinMatchmaking(ctx context.Context, connID string, raw json.RawMessage) (any, error) {
	req, err := decode[arenadto.JoinMatchmakingRequest](raw)
	if err != nil {
		return nil, err
	}
	sess, ok := g.sessions.Get(connID)
	if !ok {
		return nil, errBadPayload
	}
	g.sessions.SetRating(connID, req.Rating)

	m := g.queue.EnqueueOrMatch(connID, sess.DisplayName, req.Rating)
	if m == nil {
		pos := g.queue.Position(connID)
		obslog.L().Info("matchmaking_queued",
			zap.String("conn_id", connID), zap.Int("rating", req.Rating), zap.Int("position", pos))
		return arenadto.MatchmakingReply{InQueue: true, Position: pos}, nil
	}

	r := g.rooms.CreateMatch(m.Player1.ConnID, m.Player1.DisplayName, m.Player2.ConnID, m.Player2.DisplayName)
	for _, id := range []string{m.Player1.ConnID, m.Player2.ConnID} {
		g.sessions.EnterRoom(id, r.Code)
		g.hub.JoinRoom(r.Code, id)
	}
	gs, err := g.rooms.Start(r.Code)
	if err != nil {
		return nil, err
	}
	started := g.rooms.Get(r.Code)
	g.hub.Broadcast(ctx, r.Code, arenadto.Event{
		Type: arenadto.EventMatchFound,
		Data: arenadto.MatchFoundEvent{Room: roomView(started), GameState: gameView(gs)},
	})

	obslog.L().Info("match_found",
		zap.String("room", r.Code),
		zap.String("player1", m.Player1.ConnID), zap.Int("rating1", m.Player1.Rating),
		zap.String("player2", m.Player2.ConnID), zap.Int("rating2", m.Player2.Rating))
	return arenadto.MatchmakingReply{InQueue: false}, nil
}

func (g *Gateway) queueStatus(connID string) any {
	pos := g.queue.Position(connID)
	return arenadto.QueueStatusReply{
		Position:      pos,
		EstimatedWait: int(matchmaking.EstimatedWait(pos).Seconds()),
	}
}

func (g *Gateway) makeMove(ctx context.Context, connID string, raw json.RawMessage) (any, error) {
	req, err := decode[arenadto.MakeMoveRequest](raw)
	if err != nil {
		return nil, err
	}
	res, err := g.rooms.ApplyMove(req.RoomCode, connID, req.CellIndex)
	if err != nil {
		return nil, err
	}

	if !res.Terminal {
		g.hub.Broadcast(ctx, req.RoomCode, arenadto.Event{
			Type: arenadto.EventMoveMade,
			Data: arenadto.MoveMadeEvent{
				CellIndex:  res.Cell,
				Symbol:     string(res.Symbol),
				NextPlayer: res.NextPlayer,
				GameState:  gameView(&res.Game),
			},
		})
		return nil, nil
	}

	over := arenadto.GameOverEvent{Result: "win", Winner: res.Winner, WinnerID: res.WinnerID}
	if res.Winner == room.WinnerDraw {
		over = arenadto.GameOverEvent{Result: "draw"}
	}
	g.hub.Broadcast(ctx, req.RoomCode, arenadto.Event{Type: arenadto.EventGameOver, Data: over})

	// finished rooms leave the store right after the broadcast; the archive
	// is the only retention
	r := g.rooms.Get(req.RoomCode)
	if r != nil {
		g.settle(ctx, r, res)
		g.rooms.Remove(r.Code)
		g.hub.DropRoom(r.Code)
		for id := range r.Players {
			g.sessions.LeaveRoom(id)
		}
	}
	obslog.L().Info("game_over",
		zap.String("room", req.RoomCode), zap.String("winner", res.Winner), zap.Int("moves", res.Game.MoveCount))
	return nil, nil
}

// settle applies rating deltas and hands the result to the archive.
func (g *Gateway) settle(ctx context.Context, r *room.Room, res *room.MoveResult) {
	type payout struct {
		id    string
		delta int
	}
	var payouts []payout
	method := "win"
	if res.Winner == room.WinnerDraw {
		method = "draw"
		payouts = []payout{{r.Player1ID, drawDelta}, {r.Player2ID, drawDelta}}
	} else {
		payouts = []payout{{res.WinnerID, winDelta}, {r.Opponent(res.WinnerID), lossDelta}}
	}

	for _, p := range payouts {
		g.sessions.AdjustRating(p.id, p.delta)
		if g.ratings == nil {
			continue
		}
		if sess, ok := g.sessions.Get(p.id); ok {
			if err := g.ratings.Adjust(ctx, sess.DisplayName, p.delta); err != nil {
				obslog.L().Warn("rating_adjust_error", zap.String("conn_id", p.id), zap.Error(err))
			}
		}
	}

	if g.results != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.results.SaveResult(cctx, archive.NewResult(r, res, method)); err != nil {
			obslog.L().Warn("result_archive_error", zap.String("room", r.Code), zap.Error(err))
		}
	}
}

func (g *Gateway) restartGame(ctx context.Context, connID string, raw json.RawMessage) error {
	req, err := decode[arenadto.RestartGameRequest](raw)
	if err != nil {
		return err
	}
	if !g.hub.InRoom(req.RoomCode, connID) {
		return room.ErrNotSeated
	}
	gs, err := g.rooms.Start(req.RoomCode)
	if err != nil {
		return err
	}
	g.hub.Broadcast(ctx, req.RoomCode, arenadto.Event{
		Type: arenadto.EventGameRestart,
		Data: arenadto.GameRestartEvent{GameState: gameView(gs)},
	})
	obslog.L().Info("game_restarted", zap.String("room", req.RoomCode), zap.String("by", connID))
	return nil
}

func (g *Gateway) chatMessage(ctx context.Context, connID string, raw json.RawMessage) error {
	req, err := decode[arenadto.ChatMessageRequest](raw)
	if err != nil {
		return err
	}
	sess, ok := g.sessions.Get(connID)
	if !ok || req.RoomCode == "" || !g.hub.InRoom(req.RoomCode, connID) {
		return nil
	}
	g.hub.Broadcast(ctx, req.RoomCode, arenadto.Event{
		Type: arenadto.EventChatMessage,
		Data: arenadto.ChatMessageEvent{
			UserID:    connID,
			Username:  sess.DisplayName,
			Message:   req.Message,
			Timestamp: time.Now().UnixMilli(),
		},
	})
	return nil
}

func (g *Gateway) reaction(ctx context.Context, connID string, raw json.RawMessage) error {
	req, err := decode[arenadto.ReactionRequest](raw)
	if err != nil {
		return err
	}
	sess, ok := g.sessions.Get(connID)
	if !ok || req.RoomCode == "" || !g.hub.InRoom(req.RoomCode, connID) {
		return nil
	}
	g.hub.Broadcast(ctx, req.RoomCode, arenadto.Event{
		Type: arenadto.EventReaction,
		Data: arenadto.ReactionEvent{
			UserID:    connID,
			Username:  sess.DisplayName,
			Reaction:  req.Reaction,
			Timestamp: time.Now().UnixMilli(),
		},
	})
	return nil
}

func (g *Gateway) spectateRoom(ctx context.Context, connID string, raw json.RawMessage) (any, error) {
	req, err := decode[arenadto.SpectateRoomRequest](raw)
	if err != nil {
		return nil, err
	}
	r, err := g.rooms.Spectate(req.RoomCode, connID)
	if err != nil {
		return nil, err
	}
	g.hub.JoinRoom(r.Code, connID)
	g.hub.Broadcast(ctx, r.Code, arenadto.Event{
		Type: arenadto.EventSpectatorJoined,
		Data: arenadto.SpectatorJoinedEvent{SpectatorID: connID, SpectatorCount: len(r.Spectators)},
	})
	obslog.L().Info("spectator_joined", zap.String("room", r.Code), zap.String("conn_id", connID))
	return arenadto.SpectateReply{Room: roomView(r), GameState: gameView(r.Game)}, nil
}
