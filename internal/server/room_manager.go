package server

import (
	"errors"
	"sync"

	"traitor-server/internal/game"
)

// RoomManager is the process-wide room registry: room code -> live Room.
// Rooms exist from the createRoom that allocates them until the moment no
// active player remains. The map mutex guards only registry operations;
// each Room serializes its own mutations.
type RoomManager struct {
	rooms            map[string]*game.Room
	enforceTurnOwner bool
	mu               sync.RWMutex
}

func NewRoomManager(enforceTurnOwner bool) *RoomManager {
	return &RoomManager{
		rooms:            make(map[string]*game.Room),
		enforceTurnOwner: enforceTurnOwner,
	}
}

// CreateRoom allocates a room under the given code, generating a fresh code
// when none is supplied. If the code already names a live room, that room is
// adopted unchanged (its capacity wins) and created is false.
func (rm *RoomManager) CreateRoom(code string, maxRoomSize int) (*game.Room, string, bool, error) {
	if code == "" {
		rm.mu.Lock()
		for {
			code = RandomRoomCode()
			if _, taken := rm.rooms[code]; !taken {
				break
			}
		}
		room := game.NewRoom(code, maxRoomSize)
		room.EnforceTurnOwner = rm.enforceTurnOwner
		rm.rooms[code] = room
		rm.mu.Unlock()
		return room, code, true, nil
	}

	code = NormalizeRoomCode(code)
	if err := ValidateRoomCode(code); err != nil {
		return nil, "", false, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if room, ok := rm.rooms[code]; ok {
		return room, code, false, nil
	}
	room := game.NewRoom(code, maxRoomSize)
	room.EnforceTurnOwner = rm.enforceTurnOwner
	rm.rooms[code] = room
	return room, code, true, nil
}

// GetRoom looks up a live room by code.
func (rm *RoomManager) GetRoom(code string) (*game.Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[NormalizeRoomCode(code)]
	if !ok {
		return nil, errors.New("Room does not exist.")
	}
	return room, nil
}

// RemoveIfEmpty destroys the room when it has no active players left.
// Called after every leave, kick and disconnect.
func (rm *RoomManager) RemoveIfEmpty(code string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	room, ok := rm.rooms[code]
	if !ok || !room.Empty() {
		return false
	}
	delete(rm.rooms, code)
	return true
}

// RoomCount reports the number of live rooms.
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}
