package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"traitor-server/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Get("/", s.rootHandler)
	r.Get("/health", s.healthHandler)
	r.Get("/websocket", s.websocketHandler)

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"message": "word traitor server"}
	jsonResp, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonResp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "up", "rooms": fmt.Sprint(s.roomManager.RoomCount())}
	jsonResp, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonResp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// websocketHandler owns one client connection: accept, register, then read
// and dispatch events until the socket drops. The deferred reconciliation
// treats a dropped connection as an implicit leave for whichever player was
// bound to it.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // TODO: make environment-specific
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	log.Printf("New connection: %s", connectionID)
	s.connectionManager.AddConnection(connectionID, socket)
	defer s.reconcileDisconnect(connectionID)

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Printf("Connection %s read error: %v", connectionID, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("Non-text input from %s", connectionID)
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendRoomError(socket, ctx, "RATE_LIMIT_EXCEEDED: Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid JSON from %s: %v", connectionID, err)
			s.sendRoomError(socket, ctx, "INVALID_JSON: Could not parse message")
			continue
		}

		if err := ValidateMessageType(msg.Type); err != nil {
			s.sendRoomError(socket, ctx, err.Error())
			continue
		}

		log.Printf("Message type '%s' from %s", msg.Type, connectionID)

		switch msg.Type {
		case "ping":
			s.handlePing(socket, ctx, connectionID)

		case "createRoom":
			s.handleCreateRoom(socket, ctx, connectionID, msg.Payload)

		case "join":
			s.handleJoin(socket, ctx, connectionID, msg.Payload)

		case "submitWord":
			s.handleSubmitWord(msg.Payload)

		case "submitClue":
			s.handleSubmitClue(msg.Payload)

		case "submitVote":
			s.handleSubmitVote(msg.Payload)

		case "leaveRoom":
			s.handleLeaveRoom(socket, ctx, connectionID, msg.Payload)

		case "kickPlayer":
			s.handleKickPlayer(socket, ctx, msg.Payload)
		}
	}
}

// reconcileDisconnect maps a dropped transport connection back to its player
// and applies leave semantics. A stale connection (the player already
// reconnected elsewhere) matches nothing and has no room effect.
func (s *Server) reconcileDisconnect(connectionID string) {
	binding, bound := s.connectionManager.BindingFor(connectionID)
	s.connectionManager.RemoveConnection(connectionID)
	s.rateLimiter.RemoveConnection(connectionID)
	log.Printf("Connection closed: %s", connectionID)

	if !bound {
		return
	}

	room, err := s.roomManager.GetRoom(binding.RoomCode)
	if err != nil {
		return
	}

	res, ok := room.DisconnectConnection(connectionID)
	if !ok {
		return
	}

	log.Printf("Player %s (%s) disconnected from room %s", binding.PlayerID, res.Nickname, binding.RoomCode)

	if res.NewAdmin != "" {
		s.broadcastNotification(room, fmt.Sprintf("%s is now the admin.", res.NewAdmin))
	}
	s.broadcastPlayers(room, res.Players)
	s.teardownIfEmpty(room)
}

func (s *Server) handlePing(socket *websocket.Conn, ctx context.Context, connectionID string) {
	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "pong", Payload: struct{}{}}); err != nil {
		log.Printf("Failed to send pong to %s: %v", connectionID, err)
	}
}

func (s *Server) handleCreateRoom(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req CreateRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendRoomError(socket, ctx, "INVALID_PAYLOAD: Invalid createRoom payload")
		return
	}
	if err := ValidateNickname(req.Nickname); err != nil {
		s.sendRoomError(socket, ctx, err.Error())
		return
	}

	room, code, created, err := s.roomManager.CreateRoom(req.RoomID, req.MaxRoomSize)
	if err != nil {
		s.sendRoomError(socket, ctx, err.Error())
		return
	}
	if !created {
		// Adopt the live room; its capacity wins over the request's.
		s.sendNotification(socket, ctx, "Room already exists. Joining with its current settings.")
	}

	res := room.JoinAsCreator(req.PlayerID, req.Nickname, connectionID)
	s.bindPlayer(connectionID, code, req.PlayerID, req.Nickname)

	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "joined", Payload: code}); err != nil {
		log.Printf("Failed to send joined: %v", err)
	}
	if !res.Reconnected {
		s.broadcastNotification(room, fmt.Sprintf("%s created the room.", req.Nickname))
	}
	s.broadcastPlayers(room, res.Players)
}

func (s *Server) handleJoin(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendRoomError(socket, ctx, "INVALID_PAYLOAD: Invalid join payload")
		return
	}
	if err := ValidateNickname(req.Nickname); err != nil {
		s.sendRoomError(socket, ctx, err.Error())
		return
	}

	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		s.sendRoomError(socket, ctx, err.Error())
		return
	}

	res, err := room.Join(req.PlayerID, req.Nickname, connectionID)
	if err != nil {
		s.sendRoomError(socket, ctx, err.Error())
		return
	}
	s.bindPlayer(connectionID, room.Code, req.PlayerID, req.Nickname)

	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "joined", Payload: room.Code}); err != nil {
		log.Printf("Failed to send joined: %v", err)
	}
	if !res.Reconnected {
		s.broadcastNotification(room, fmt.Sprintf("%s joined the room.", req.Nickname))
	}
	s.broadcastPlayers(room, res.Players)
}

func (s *Server) handleSubmitWord(payload json.RawMessage) {
	var req SubmitWordRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		return
	}

	nickname, start, err := room.SubmitWord(req.PlayerID, req.Word)
	if err != nil {
		return
	}
	s.broadcastNotification(room, fmt.Sprintf("%s submitted a word.", nickname))

	if start == nil {
		return
	}
	s.broadcastNotification(room, "The game is starting!")

	for _, p := range start.Players {
		role := RoleMessage{Role: "friend", Word: start.ChosenWord}
		if p.Traitor {
			role = RoleMessage{Role: "traitor"}
		}
		s.sendToConnection(p.ConnectionID, "role", role)
	}

	first := start.Players[0]
	s.sendToConnection(first.ConnectionID, "yourTurn", nil)
	s.broadcastToRoom(room, "cluePhase", CluePhaseMessage{Turn: 0, Total: start.Total})
}

func (s *Server) handleSubmitClue(payload json.RawMessage) {
	var req SubmitClueRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		return
	}

	// Out-of-phase and inactive-player submissions are stale client messages,
	// dropped without a reply.
	adv, err := room.SubmitClue(req.PlayerID, req.Clue)
	if err != nil {
		return
	}

	if !adv.Done {
		s.sendToConnection(adv.Next.ConnectionID, "yourTurn", nil)
		s.broadcastToRoom(room, "cluePhase", CluePhaseMessage{Turn: adv.Turn, Total: adv.Total})
		return
	}

	s.broadcastToRoom(room, "allClues", AllCluesMessage{Clues: adv.Clues})
	s.broadcastToRoom(room, "votingPhase", nil)
}

func (s *Server) handleSubmitVote(payload json.RawMessage) {
	var req SubmitVoteRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		return
	}

	outcome, err := room.SubmitVote(req.PlayerID, req.SuspectID)
	if err != nil {
		return
	}
	if outcome.Done {
		s.broadcastToRoom(room, "results", ResultsMessage{
			Votes:      outcome.Votes,
			VoteCounts: outcome.VoteCounts,
		})
	}
}

func (s *Server) handleLeaveRoom(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req LeaveRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		return
	}

	res, err := room.Leave(req.PlayerID)
	if err == nil {
		if res.NewAdmin != "" {
			s.broadcastNotification(room, fmt.Sprintf("%s is now the admin.", res.NewAdmin))
		}
		s.broadcastPlayers(room, res.Players)
		s.broadcastNotification(room, fmt.Sprintf("%s left the room.", res.Nickname))
	}

	s.connectionManager.Unbind(connectionID)
	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "leftRoom", Payload: room.Code}); err != nil {
		log.Printf("Failed to send leftRoom: %v", err)
	}
	s.teardownIfEmpty(room)
}

func (s *Server) handleKickPlayer(socket *websocket.Conn, ctx context.Context, payload json.RawMessage) {
	var req KickPlayerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	room, err := s.roomManager.GetRoom(req.RoomID)
	if err != nil {
		return
	}

	res, err := room.Kick(req.AdminID, req.TargetPlayerID)
	if err != nil {
		// Denials stay private to the requester.
		s.sendNotification(socket, ctx, err.Error())
		return
	}

	if res.NewAdmin != "" {
		s.broadcastNotification(room, fmt.Sprintf("%s is now the admin.", res.NewAdmin))
	}
	s.broadcastPlayers(room, res.Players)
	s.broadcastNotification(room, fmt.Sprintf("%s was kicked by the admin.", res.TargetNickname))

	// Tell the target directly, then force its connection closed.
	if targetConnID := s.connectionManager.ConnectionIDForPlayer(room.Code, req.TargetPlayerID); targetConnID != "" {
		if target := s.connectionManager.GetConnection(targetConnID); target != nil {
			bg := context.Background()
			s.sendNotification(target, bg, "You were kicked from the room by the admin.")
			if err := s.sendMessage(target, bg, ServerMessage{Type: "leftRoom", Payload: room.Code}); err != nil {
				log.Printf("Failed to send leftRoom to kicked player: %v", err)
			}
			s.connectionManager.Unbind(targetConnID)
			target.Close(websocket.StatusNormalClosure, "Kicked from room")
		}
	}

	s.teardownIfEmpty(room)
}

// bindPlayer records the connection <-> player binding and evicts any previous
// connection the player was on (reconnect from another tab or device).
func (s *Server) bindPlayer(connectionID, roomCode, playerID, nickname string) {
	old := s.connectionManager.Bind(connectionID, roomCode, playerID, nickname)
	if old == "" || old == connectionID {
		return
	}
	if conn := s.connectionManager.GetConnection(old); conn != nil {
		bg := context.Background()
		s.sendNotification(conn, bg, "You connected from another device.")
		conn.Close(websocket.StatusNormalClosure, "Connected from another device")
	}
}

// teardownIfEmpty destroys the room the moment no active player remains,
// telling any still-open sockets first.
func (s *Server) teardownIfEmpty(room *game.Room) {
	if !room.Empty() {
		return
	}
	s.broadcastToRoom(room, "roomClosed", RoomClosedMessage{
		Message: "The room has been closed due to inactivity.",
	})
	if s.roomManager.RemoveIfEmpty(room.Code) {
		log.Printf("Removed room %s: no active players remain", room.Code)
	}
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return socket.Write(ctx, websocket.MessageText, data)
}

func (s *Server) sendRoomError(socket *websocket.Conn, ctx context.Context, msg string) {
	if err := s.sendMessage(socket, ctx, ServerMessage{
		Type:    "roomError",
		Payload: ErrorMessage{Error: msg},
	}); err != nil {
		log.Printf("Failed to send roomError: %v", err)
	}
}

func (s *Server) sendNotification(socket *websocket.Conn, ctx context.Context, msg string) {
	if err := s.sendMessage(socket, ctx, ServerMessage{
		Type:    "notification",
		Payload: NotificationMessage{Message: msg},
	}); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

// sendToConnection delivers a targeted message (role, yourTurn) to one
// connection, fire-and-forget.
func (s *Server) sendToConnection(connectionID, msgType string, payload interface{}) {
	conn := s.connectionManager.GetConnection(connectionID)
	if conn == nil {
		return
	}
	if err := s.sendMessage(conn, context.Background(), ServerMessage{Type: msgType, Payload: payload}); err != nil {
		log.Printf("Failed to send %s: %v", msgType, err)
	}
}

// broadcastToRoom fans a message out to every player still bound to a live
// connection. Players who left, were kicked, or dropped have no binding, so
// this reaches exactly the connected participants.
func (s *Server) broadcastToRoom(room *game.Room, msgType string, payload interface{}) {
	for _, p := range room.Snapshot() {
		conn := s.connectionManager.ConnectionForPlayer(room.Code, p.PlayerID)
		if conn == nil {
			continue
		}
		if err := s.sendMessage(conn, context.Background(), ServerMessage{Type: msgType, Payload: payload}); err != nil {
			log.Printf("Failed to broadcast %s to %s: %v", msgType, p.Nickname, err)
		}
	}
}

func (s *Server) broadcastNotification(room *game.Room, message string) {
	s.broadcastToRoom(room, "notification", NotificationMessage{Message: message})
}

func (s *Server) broadcastPlayers(room *game.Room, players []game.PlayerInfo) {
	s.broadcastToRoom(room, "players", PlayersMessage{Players: players})
}
