package wsgate

import (
	"ttt-arena/internal/room"
	"ttt-arena/pkg/arenadto"
)

func roomView(r *room.Room) *arenadto.RoomView {
	if r == nil {
		return nil
	}
	v := &arenadto.RoomView{
		Code:       r.Code,
		Host:       r.HostID,
		Player1:    r.Player1ID,
		Player2:    r.Player2ID,
		Players:    make(map[string]arenadto.SeatView, len(r.Players)),
		Spectators: append([]string(nil), r.Spectators...),
		Settings: arenadto.SettingsView{
			AllowSpectators: r.Settings.AllowSpectators,
			TimerEnabled:    r.Settings.TimerEnabled,
			TimeLimit:       r.Settings.TimeLimitSeconds,
		},
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
	for id, seat := range r.Players {
		v.Players[id] = arenadto.SeatView{
			ID:       seat.ID,
			Username: seat.DisplayName,
			Symbol:   string(seat.Symbol),
			Ready:    seat.Ready,
		}
	}
	return v
}

func gameView(g *room.GameState) *arenadto.GameView {
	if g == nil {
		return nil
	}
	v := &arenadto.GameView{
		CurrentPlayer: g.CurrentPlayer,
		MoveCount:     g.MoveCount,
		TimeLeft:      g.TimeLeft,
		StartTime:     g.StartTime.UnixMilli(),
		LastMoveTime:  g.LastMoveTime.UnixMilli(),
		Status:        string(g.Status),
		Winner:        g.Winner,
	}
	for i, c := range g.Board {
		v.Board[i] = string(c)
	}
	return v
}
