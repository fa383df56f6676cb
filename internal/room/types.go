package room

import (
	"time"

	"ttt-arena/internal/game"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// GameStatus is the state of the embedded game.
type GameStatus string

const (
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

// WinnerDraw is the winner marker for a drawn game.
const WinnerDraw = "draw"

// Settings are per-room options chosen at creation.
type Settings struct {
	AllowSpectators  bool `json:"allowSpectators"`
	TimerEnabled     bool `json:"timerEnabled"`
	TimeLimitSeconds int  `json:"timeLimit"`
}

// DefaultSettings mirrors the defaults applied when the creator omits options.
func DefaultSettings() Settings {
	return Settings{AllowSpectators: true, TimerEnabled: true, TimeLimitSeconds: 60}
}

// Seat is one seated player.
type Seat struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"username"`
	Symbol      game.Symbol `json:"symbol"`
	Ready       bool        `json:"ready"`
}

// GameState is the authoritative in-room game. Present only once the room
// has started; exactly MoveCount cells of Board are non-empty.
type GameState struct {
	Board         game.Board `json:"board"`
	CurrentPlayer string     `json:"currentPlayer"`
	MoveCount     int        `json:"moveCount"`
	TimeLeft      int        `json:"timeLeft,omitempty"`
	StartTime     time.Time  `json:"startTime"`
	LastMoveTime  time.Time  `json:"lastMoveTime"`
	Status        GameStatus `json:"status"`
	Winner        string     `json:"winner,omitempty"`
}

// Room is a match session container. The store owns every Room; callers
// receive snapshots and address rooms by code.
type Room struct {
	Code       string           `json:"code"`
	HostID     string           `json:"host"`
	Player1ID  string           `json:"player1"`
	Player2ID  string           `json:"player2,omitempty"`
	Players    map[string]*Seat `json:"players"`
	Spectators []string         `json:"spectators"`
	Settings   Settings         `json:"settings"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	Game       *GameState       `json:"gameState,omitempty"`
}

func (r *Room) clone() *Room {
	c := *r
	c.Players = make(map[string]*Seat, len(r.Players))
	for id, seat := range r.Players {
		s := *seat
		c.Players[id] = &s
	}
	c.Spectators = append([]string(nil), r.Spectators...)
	if r.Game != nil {
		g := *r.Game
		c.Game = &g
	}
	return &c
}

// seatIDFor returns the connection holding the given symbol, or "".
func (r *Room) seatIDFor(sym game.Symbol) string {
	for id, seat := range r.Players {
		if seat.Symbol == sym {
			return id
		}
	}
	return ""
}

// Opponent returns the other seated player, or "".
func (r *Room) Opponent(connID string) string {
	switch connID {
	case r.Player1ID:
		return r.Player2ID
	case r.Player2ID:
		return r.Player1ID
	}
	return ""
}

// MoveResult describes one accepted move.
type MoveResult struct {
	Cell       int
	Symbol     game.Symbol
	NextPlayer string // empty when the move ended the game
	Terminal   bool
	Winner     string // "X", "O" or "draw" when terminal
	WinnerID   string // winning connection, empty on draw
	Game       GameState
}
