package arenadto

// SeatView is one seated player as sent to clients.
type SeatView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Symbol   string `json:"symbol"`
	Ready    bool   `json:"ready"`
}

// SettingsView mirrors room settings on the wire.
type SettingsView struct {
	AllowSpectators bool `json:"allowSpectators"`
	TimerEnabled    bool `json:"timerEnabled"`
	TimeLimit       int  `json:"timeLimit"`
}

// RoomView is the client-facing room snapshot.
type RoomView struct {
	Code       string              `json:"code"`
	Host       string              `json:"host"`
	Player1    string              `json:"player1"`
	Player2    string              `json:"player2,omitempty"`
	Players    map[string]SeatView `json:"players"`
	Spectators []string            `json:"spectators"`
	Settings   SettingsView        `json:"settings"`
	Status     string              `json:"status"`
	CreatedAt  int64               `json:"createdAt"`
}

// GameView is the client-facing game snapshot. Board cells are "", "X", "O".
type GameView struct {
	Board         [9]string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
	MoveCount     int       `json:"moveCount"`
	TimeLeft      int       `json:"timeLeft,omitempty"`
	StartTime     int64     `json:"startTime"`
	LastMoveTime  int64     `json:"lastMoveTime"`
	Status        string    `json:"status"`
	Winner        string    `json:"winner,omitempty"`
}

type ConnectedEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type PlayerJoinedEvent struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type GameStartEvent struct {
	Room      *RoomView `json:"room"`
	GameState *GameView `json:"gameState"`
}

// MatchFoundEvent reuses the start shape; both matched players receive it.
type MatchFoundEvent = GameStartEvent

type MoveMadeEvent struct {
	CellIndex  int       `json:"cellIndex"`
	Symbol     string    `json:"symbol"`
	NextPlayer string    `json:"nextPlayer"`
	GameState  *GameView `json:"gameState"`
}

type GameOverEvent struct {
	Result   string `json:"result"` // "win" or "draw"
	Winner   string `json:"winner,omitempty"`
	WinnerID string `json:"winnerId,omitempty"`
}

type GameRestartEvent struct {
	GameState *GameView `json:"gameState"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type PlayerDisconnectedEvent = PlayerLeftEvent

type OpponentDisconnectedEvent struct {
	Message string `json:"message"`
}

type SpectatorJoinedEvent struct {
	SpectatorID    string `json:"spectatorId"`
	SpectatorCount int    `json:"spectatorCount"`
}

type ChatMessageEvent struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type ReactionEvent struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Reaction  string `json:"reaction"`
	Timestamp int64  `json:"timestamp"`
}

// Reply payloads.

type CreateRoomReply struct {
	RoomCode string    `json:"roomCode"`
	Room     *RoomView `json:"room"`
}

type JoinRoomReply struct {
	Room      *RoomView `json:"room"`
	GameState *GameView `json:"gameState,omitempty"`
}

type MatchmakingReply struct {
	InQueue  bool `json:"inQueue"`
	Position int  `json:"position,omitempty"`
}

type QueueStatusReply struct {
	Position      int `json:"position"`
	EstimatedWait int `json:"estimatedWait"` // seconds
}

type SpectateReply = JoinRoomReply

// Standing is one leaderboard row.
type Standing struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// StatsReply is the /api/stats projection.
type StatsReply struct {
	ActiveRooms    int `json:"activeRooms"`
	PlayersOnline  int `json:"playersOnline"`
	PlayersInQueue int `json:"playersInQueue"`
}
