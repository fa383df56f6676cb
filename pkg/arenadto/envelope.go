// Package arenadto holds the wire shapes exchanged with clients over the
// WebSocket gateway and the read-only HTTP API.
package arenadto

import "encoding/json"

// Intent is one inbound client frame. Data is decoded per Type at the
// gateway boundary; stores never see raw payloads. Seq, when non-zero, asks
// for a Reply echoing it (the ack pattern of the original transport).
type Intent struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Intent types.
const (
	IntentCreateRoom        = "createRoom"
	IntentJoinRoom          = "joinRoom"
	IntentLeaveRoom         = "leaveRoom"
	IntentJoinMatchmaking   = "joinMatchmaking"
	IntentCancelMatchmaking = "cancelMatchmaking"
	IntentGetQueueStatus    = "getQueueStatus"
	IntentMakeMove          = "makeMove"
	IntentRestartGame       = "restartGame"
	IntentChatMessage       = "chatMessage"
	IntentReaction          = "reaction"
	IntentSpectateRoom      = "spectateRoom"
)

// Reply answers one Intent carrying a Seq.
type Reply struct {
	Type  string `json:"type"`
	Seq   int64  `json:"seq"`
	OK    bool   `json:"success"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Event is an outbound broadcast or direct notification.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Event types.
const (
	EventConnected            = "connected"
	EventPlayerJoined         = "playerJoined"
	EventGameStart            = "gameStart"
	EventMatchFound           = "matchFound"
	EventMoveMade             = "moveMade"
	EventGameOver             = "gameOver"
	EventGameRestart          = "gameRestart"
	EventPlayerLeft           = "playerLeft"
	EventPlayerDisconnected   = "playerDisconnected"
	EventOpponentDisconnected = "opponentDisconnected"
	EventSpectatorJoined      = "spectatorJoined"
	EventChatMessage          = "chatMessage"
	EventReaction             = "reaction"
)
