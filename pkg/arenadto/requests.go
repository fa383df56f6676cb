package arenadto

// CreateRoomRequest carries room settings; omitted fields fall back to the
// server defaults (spectators on, 60s timer on).
type CreateRoomRequest struct {
	AllowSpectators *bool `json:"allowSpectators,omitempty"`
	TimerEnabled    *bool `json:"timerEnabled,omitempty"`
	TimeLimit       *int  `json:"timeLimit,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type JoinMatchmakingRequest struct {
	Rating int `json:"rating"`
}

type MakeMoveRequest struct {
	RoomCode  string `json:"roomCode"`
	CellIndex int    `json:"cellIndex"`
}

type RestartGameRequest struct {
	RoomCode string `json:"roomCode"`
}

type ChatMessageRequest struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type ReactionRequest struct {
	RoomCode string `json:"roomCode"`
	Reaction string `json:"reaction"`
}

type SpectateRoomRequest struct {
	RoomCode string `json:"roomCode"`
}
