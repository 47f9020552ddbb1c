package server

import (
	"sync"

	"github.com/coder/websocket"
)

// PlayerBinding ties a live connection to the player it authenticated as.
type PlayerBinding struct {
	RoomCode string
	PlayerID string
	Nickname string
}

// ConnectionManager tracks live websockets and the connection <-> player
// binding in both directions: targeted sends need player -> connection,
// disconnect reconciliation needs connection -> player.
type ConnectionManager struct {
	connections map[string]*websocket.Conn // connectionID -> socket
	bindings    map[string]PlayerBinding   // connectionID -> player info
	players     map[string]string          // roomCode/playerID -> connectionID
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		bindings:    make(map[string]PlayerBinding),
		players:     make(map[string]string),
	}
}

func playerKey(roomCode, playerID string) string {
	return roomCode + "/" + playerID
}

func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

// RemoveConnection drops the socket and any binding it held. The player index
// entry is only removed if it still points at this connection, so a reconnect
// that already rebound the player is left alone.
func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.connections, id)
	if b, ok := cm.bindings[id]; ok {
		delete(cm.bindings, id)
		key := playerKey(b.RoomCode, b.PlayerID)
		if cm.players[key] == id {
			delete(cm.players, key)
		}
	}
}

// Bind associates a connection with a player after a successful join.
// Returns the previous connection ID for this player when the player was
// already bound elsewhere (device switch / reconnect), "" otherwise.
func (cm *ConnectionManager) Bind(connectionID, roomCode, playerID, nickname string) string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	key := playerKey(roomCode, playerID)
	old := cm.players[key]
	if old == connectionID {
		old = ""
	} else if old != "" {
		delete(cm.bindings, old)
	}

	cm.bindings[connectionID] = PlayerBinding{
		RoomCode: roomCode,
		PlayerID: playerID,
		Nickname: nickname,
	}
	cm.players[key] = connectionID
	return old
}

// Unbind detaches the connection from its player without closing the socket.
// Used on explicit leave and kick: the human is out of the room, but the
// connection may stay open.
func (cm *ConnectionManager) Unbind(connectionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if b, ok := cm.bindings[connectionID]; ok {
		delete(cm.bindings, connectionID)
		key := playerKey(b.RoomCode, b.PlayerID)
		if cm.players[key] == connectionID {
			delete(cm.players, key)
		}
	}
}

// BindingFor returns the player bound to a connection, if any.
func (cm *ConnectionManager) BindingFor(connectionID string) (PlayerBinding, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	b, ok := cm.bindings[connectionID]
	return b, ok
}

func (cm *ConnectionManager) GetConnection(connectionID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.connections[connectionID]
}

// ConnectionIDForPlayer returns the connection a player is bound to, or "".
func (cm *ConnectionManager) ConnectionIDForPlayer(roomCode, playerID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.players[playerKey(roomCode, playerID)]
}

// ConnectionForPlayer returns the live socket for a player in a room, or nil.
func (cm *ConnectionManager) ConnectionForPlayer(roomCode, playerID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	id, ok := cm.players[playerKey(roomCode, playerID)]
	if !ok {
		return nil
	}
	return cm.connections[id]
}

// AllConnections returns every live socket, for shutdown.
func (cm *ConnectionManager) AllConnections() []*websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(cm.connections))
	for _, c := range cm.connections {
		conns = append(conns, c)
	}
	return conns
}
