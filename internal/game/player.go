package game

// Player is one human in a room, tracked across reconnects by the
// client-supplied stable ID. The record is kept (marked inactive) on
// leave/kick/disconnect so a later rejoin restores the same slot.
type Player struct {
	ID           string
	Nickname     string
	ConnectionID string
	Inactive     bool

	// word is the pending submission for the round being collected.
	// Cleared when the round launches.
	word *string
}

// PlayerInfo is the wire-safe view of a player used in `players` broadcasts.
type PlayerInfo struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Inactive bool   `json:"inactive"`
	Admin    bool   `json:"admin"`
}

// RoundPlayer is a value copy of an active player handed to the transport
// layer for targeted delivery (roles, turn notices).
type RoundPlayer struct {
	PlayerID     string
	Nickname     string
	ConnectionID string
	Traitor      bool
}
