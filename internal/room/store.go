package room

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"ttt-arena/internal/game"
)

var (
	ErrNotFound             = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrInsufficientPlayers  = errors.New("not enough players")
	ErrNotActive            = errors.New("game is not active")
	ErrNotSeated            = errors.New("player is not seated in this room")
	ErrInvalidTurn          = errors.New("not your turn")
	ErrCellOccupied         = errors.New("cell already taken")
	ErrOutOfRange           = errors.New("cell index out of range")
	ErrSpectatorsDisallowed = errors.New("spectators not allowed")
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Store is the single source of truth for rooms and in-room game state.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room), now: time.Now}
}

// generateCode draws 6-char codes until one is unused. Collisions are
// vanishingly rare but rooms outlive each other, so the retry is mandatory.
// Caller holds the lock.
func (s *Store) generateCode() string {
	b := make([]byte, 6)
	for {
		if _, err := rand.Read(b); err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		for i := range b {
			b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
		}
		code := string(b)
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

// Create opens a private room with the host seated as X.
func (s *Store) Create(hostID, hostName string, settings Settings) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Room{
		Code:      s.generateCode(),
		HostID:    hostID,
		Player1ID: hostID,
		Players: map[string]*Seat{
			hostID: {ID: hostID, DisplayName: hostName, Symbol: game.X, Ready: true},
		},
		Spectators: []string{},
		Settings:   settings,
		Status:     StatusWaiting,
		CreatedAt:  s.now(),
	}
	s.rooms[r.Code] = r
	return r.clone()
}

// CreateMatch opens a room from a matchmaking pairing with both seats
// filled: p1 hosts and takes X, p2 takes O. Default settings apply.
func (s *Store) CreateMatch(p1ID, p1Name, p2ID, p2Name string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Room{
		Code:      s.generateCode(),
		HostID:    p1ID,
		Player1ID: p1ID,
		Player2ID: p2ID,
		Players: map[string]*Seat{
			p1ID: {ID: p1ID, DisplayName: p1Name, Symbol: game.X, Ready: true},
			p2ID: {ID: p2ID, DisplayName: p2Name, Symbol: game.O, Ready: true},
		},
		Spectators: []string{},
		Settings:   DefaultSettings(),
		Status:     StatusWaiting,
		CreatedAt:  s.now(),
	}
	s.rooms[r.Code] = r
	return r.clone()
}

// Join seats the second player as O.
func (s *Store) Join(code, connID, name string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rooms[code]
	if r == nil {
		return nil, ErrNotFound
	}
	if r.Player2ID != "" {
		return nil, ErrRoomFull
	}
	r.Player2ID = connID
	r.Players[connID] = &Seat{ID: connID, DisplayName: name, Symbol: game.O, Ready: true}
	return r.clone(), nil
}

// Start activates the room and seeds a fresh game: empty board, X to move,
// timer from settings. Calling it on a running room resets the game, which
// is how restart works.
func (s *Store) Start(code string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rooms[code]
	if r == nil {
		return nil, ErrNotFound
	}
	if r.Player1ID == "" || r.Player2ID == "" {
		return nil, ErrInsufficientPlayers
	}

	now := s.now()
	g := &GameState{
		CurrentPlayer: r.Player1ID,
		StartTime:     now,
		LastMoveTime:  now,
		Status:        GameActive,
	}
	if r.Settings.TimerEnabled {
		g.TimeLeft = r.Settings.TimeLimitSeconds
	}
	r.Status = StatusActive
	r.Game = g
	snap := *g
	return &snap, nil
}

// ApplyMove writes one move for connID. The connection must hold a seat in
// the room even though the client already claims membership; the store does
// not trust the claim.
func (s *Store) ApplyMove(code, connID string, cell int) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rooms[code]
	if r == nil {
		return nil, ErrNotFound
	}
	seat := r.Players[connID]
	if seat == nil {
		return nil, ErrNotSeated
	}
	g := r.Game
	if g == nil || g.Status != GameActive {
		return nil, ErrNotActive
	}
	if cell < 0 || cell > 8 {
		return nil, ErrOutOfRange
	}
	if g.CurrentPlayer != connID {
		return nil, ErrInvalidTurn
	}
	if g.Board[cell] != game.Empty {
		return nil, ErrCellOccupied
	}

	g.Board[cell] = seat.Symbol
	g.MoveCount++
	g.LastMoveTime = s.now()

	res := &MoveResult{Cell: cell, Symbol: seat.Symbol}
	if out := game.Evaluate(g.Board); out.Terminal() {
		g.Status = GameFinished
		r.Status = StatusFinished
		res.Terminal = true
		if out.Draw {
			g.Winner = WinnerDraw
			res.Winner = WinnerDraw
		} else {
			g.Winner = string(out.Winner)
			res.Winner = string(out.Winner)
			res.WinnerID = r.seatIDFor(out.Winner)
		}
	} else {
		g.CurrentPlayer = r.Opponent(connID)
		if r.Settings.TimerEnabled {
			g.TimeLeft = r.Settings.TimeLimitSeconds
		}
		res.NextPlayer = g.CurrentPlayer
	}
	res.Game = *g
	return res, nil
}

// Spectate appends a watcher to the room.
func (s *Store) Spectate(code, connID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rooms[code]
	if r == nil {
		return nil, ErrNotFound
	}
	if !r.Settings.AllowSpectators {
		return nil, ErrSpectatorsDisallowed
	}
	r.Spectators = append(r.Spectators, connID)
	return r.clone(), nil
}

// Get returns a snapshot, or nil when absent.
func (s *Store) Get(code string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r := s.rooms[code]; r != nil {
		return r.clone()
	}
	return nil
}

// Remove deletes the room. Disconnect and explicit leave can race; removal
// of an absent code is a no-op.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// SweepStale removes rooms older than maxAge that are not active. An active
// match is never swept regardless of age. Returns the removed codes.
func (s *Store) SweepStale(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	cutoff := s.now().Add(-maxAge)
	for code, r := range s.rooms {
		if r.Status != StatusActive && r.CreatedAt.Before(cutoff) {
			delete(s.rooms, code)
			removed = append(removed, code)
		}
	}
	return removed
}

// ActiveCount reports rooms with a running game.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.rooms {
		if r.Status == StatusActive {
			n++
		}
	}
	return n
}

// Len reports all live rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
