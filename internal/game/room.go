package game

import (
	"errors"
	"sync"
)

// Sentinel errors carry the exact text surfaced to clients on the
// roomError / notification channels.
var (
	ErrRoomFull        = errors.New("Room is full.")
	ErrPlayerNotFound  = errors.New("Player not found.")
	ErrNotAdmin        = errors.New("Only the admin can kick players.")
	ErrAlreadyInactive = errors.New("Player is already inactive.")
)

// DefaultMaxRoomSize is used when a room is created without a capacity.
const DefaultMaxRoomSize = 6

// MinPlayersToStart is the smallest active-player count that can launch a round.
const MinPlayersToStart = 3

// Room is one game session. All exported methods are atomic under the room
// mutex and return value snapshots, so callers never touch shared state after
// the method returns. Player order is join order; it defines clue turn order
// and traitor indexing.
type Room struct {
	mu sync.Mutex

	Code    string
	MaxSize int
	AdminID string
	Players []*Player

	ChosenWord string
	TraitorID  string
	Clues      []string
	ClueTurn   int
	CluePhase  bool
	Votes      map[string]string

	// EnforceTurnOwner rejects clue submissions from players whose turn it
	// is not. Off by default: any active player may nudge the turn forward.
	EnforceTurnOwner bool
}

func NewRoom(code string, maxSize int) *Room {
	if maxSize <= 0 {
		maxSize = DefaultMaxRoomSize
	}
	return &Room{
		Code:    code,
		MaxSize: maxSize,
		Votes:   make(map[string]string),
	}
}

// JoinResult describes the outcome of a join or reconnect.
type JoinResult struct {
	Nickname    string
	Reconnected bool
	Players     []PlayerInfo
}

// Join attaches a player to the room. A known playerID is treated as a
// reconnect and always succeeds, even past capacity; a new player is rejected
// with ErrRoomFull when the active count has reached MaxSize.
func (r *Room) Join(playerID, nickname, connectionID string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinLocked(playerID, nickname, connectionID, true)
}

// JoinAsCreator is the createRoom variant of Join: same reconnect semantics,
// no capacity check, and the room is guaranteed to end up with an admin.
func (r *Room) JoinAsCreator(playerID, nickname, connectionID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, _ := r.joinLocked(playerID, nickname, connectionID, false)
	return res
}

func (r *Room) joinLocked(playerID, nickname, connectionID string, checkCapacity bool) (JoinResult, error) {
	if p := r.findLocked(playerID); p != nil {
		p.ConnectionID = connectionID
		p.Inactive = false
		p.Nickname = nickname
		return JoinResult{
			Nickname:    nickname,
			Reconnected: true,
			Players:     r.snapshotLocked(),
		}, nil
	}

	if checkCapacity && r.activeCountLocked() >= r.MaxSize {
		return JoinResult{}, ErrRoomFull
	}

	r.Players = append(r.Players, &Player{
		ID:           playerID,
		Nickname:     nickname,
		ConnectionID: connectionID,
	})
	if r.AdminID == "" {
		r.AdminID = playerID
	}
	return JoinResult{
		Nickname: nickname,
		Players:  r.snapshotLocked(),
	}, nil
}

// LeaveResult describes the outcome of a leave, kick or disconnect.
type LeaveResult struct {
	Nickname     string
	NewAdmin     string // nickname of the promoted admin, "" if none changed hands
	Empty        bool   // no active players remain
	Players      []PlayerInfo
	TargetConnID string // connection of the affected player at time of removal
}

// Leave marks the player inactive and reassigns the admin role if needed.
// The player record is retained so a rejoin restores identity and position.
func (r *Room) Leave(playerID string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findLocked(playerID)
	if p == nil {
		return LeaveResult{}, ErrPlayerNotFound
	}
	return r.deactivateLocked(p), nil
}

// DisconnectConnection applies leave semantics to whichever active player is
// currently bound to the given connection. A stale connection (the player
// reconnected elsewhere) matches nothing and reports ok=false.
func (r *Room) DisconnectConnection(connectionID string) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.Players {
		if p.ConnectionID == connectionID && !p.Inactive {
			return r.deactivateLocked(p), true
		}
	}
	return LeaveResult{}, false
}

// KickResult describes a successful admin kick.
type KickResult struct {
	TargetNickname string
	TargetConnID   string
	NewAdmin       string
	Empty          bool
	Players        []PlayerInfo
}

// Kick marks the target inactive on behalf of the admin. Failures carry the
// exact notification text for the requester and leave the room untouched.
func (r *Room) Kick(adminID, targetPlayerID string) (KickResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.AdminID != adminID {
		return KickResult{}, ErrNotAdmin
	}
	target := r.findLocked(targetPlayerID)
	if target == nil {
		return KickResult{}, ErrPlayerNotFound
	}
	if target.Inactive {
		return KickResult{}, ErrAlreadyInactive
	}

	res := r.deactivateLocked(target)
	return KickResult{
		TargetNickname: res.Nickname,
		TargetConnID:   res.TargetConnID,
		NewAdmin:       res.NewAdmin,
		Empty:          res.Empty,
		Players:        res.Players,
	}, nil
}

// deactivateLocked is the shared tail of leave/kick/disconnect: mark
// inactive, hand the admin role to the next active player in join order,
// and report whether the room is now empty.
func (r *Room) deactivateLocked(p *Player) LeaveResult {
	p.Inactive = true

	res := LeaveResult{
		Nickname:     p.Nickname,
		TargetConnID: p.ConnectionID,
	}
	if r.AdminID == p.ID {
		r.AdminID = ""
		for _, next := range r.Players {
			if !next.Inactive {
				r.AdminID = next.ID
				res.NewAdmin = next.Nickname
				break
			}
		}
	}
	res.Empty = r.activeCountLocked() == 0
	res.Players = r.snapshotLocked()
	return res
}

// Empty reports whether the room has no active players left.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCountLocked() == 0
}

// Snapshot returns the player list as broadcast to clients.
func (r *Room) Snapshot() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) findLocked(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) activePlayersLocked() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Inactive {
			active = append(active, p)
		}
	}
	return active
}

func (r *Room) activeCountLocked() int {
	return len(r.activePlayersLocked())
}

func (r *Room) snapshotLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		infos = append(infos, PlayerInfo{
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Inactive: p.Inactive,
			Admin:    r.AdminID == p.ID,
		})
	}
	return infos
}
