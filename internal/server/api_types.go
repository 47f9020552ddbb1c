package server

import "traitor-server/internal/game"

// ============================================================================
// INBOUND PAYLOADS
// ============================================================================

// createRoom
type CreateRoomRequest struct {
	RoomID      string `json:"roomId"`
	MaxRoomSize int    `json:"maxRoomSize"`
	Nickname    string `json:"nickname"`
	PlayerID    string `json:"playerId"`
}

// join
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
	PlayerID string `json:"playerId"`
}

// submitWord
type SubmitWordRequest struct {
	RoomID   string `json:"roomId"`
	Word     string `json:"word"`
	PlayerID string `json:"playerId"`
}

// submitClue
type SubmitClueRequest struct {
	RoomID   string `json:"roomId"`
	Clue     string `json:"clue"`
	PlayerID string `json:"playerId"`
}

// submitVote
type SubmitVoteRequest struct {
	RoomID    string `json:"roomId"`
	SuspectID string `json:"suspectId"`
	PlayerID  string `json:"playerId"`
}

// leaveRoom
type LeaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// kickPlayer
type KickPlayerRequest struct {
	RoomID         string `json:"roomId"`
	AdminID        string `json:"adminId"`
	TargetPlayerID string `json:"targetPlayerId"`
}

// ============================================================================
// OUTBOUND PAYLOADS
// ============================================================================

// roomError
type ErrorMessage struct {
	Error string `json:"error"`
}

// notification
type NotificationMessage struct {
	Message string `json:"message"`
}

// players
type PlayersMessage struct {
	Players []game.PlayerInfo `json:"players"`
}

// role (private per player)
type RoleMessage struct {
	Role string `json:"role"`
	Word string `json:"word,omitempty"`
}

// cluePhase
type CluePhaseMessage struct {
	Turn  int `json:"turn"`
	Total int `json:"total"`
}

// allClues
type AllCluesMessage struct {
	Clues []string `json:"clues"`
}

// results
type ResultsMessage struct {
	Votes      map[string]string `json:"votes"`
	VoteCounts map[string]int    `json:"voteCounts"`
}

// roomClosed
type RoomClosedMessage struct {
	Message string `json:"message"`
}
