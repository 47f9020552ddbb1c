package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/coder/websocket"
	_ "github.com/joho/godotenv/autoload"
)

// Server wires the process-wide registries together: the room store, the
// connection <-> player binding and the per-connection rate limiter. All game
// state is in memory; nothing survives a restart.
type Server struct {
	port              int
	connectionManager *ConnectionManager
	roomManager       *RoomManager
	rateLimiter       *RateLimiter
}

func NewServer() (*Server, *http.Server) {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	enforceTurnOwner := os.Getenv("ENFORCE_TURN_OWNER") == "true"

	ratePerSec := 20
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_PER_SEC")); err == nil && v > 0 {
		ratePerSec = v
	}

	s := &Server{
		port:              port,
		connectionManager: NewConnectionManager(),
		roomManager:       NewRoomManager(enforceTurnOwner),
		rateLimiter:       NewRateLimiter(ratePerSec, time.Second),
	}

	go s.rateLimitCleanupTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

// rateLimitCleanupTask prunes rate limit entries left behind by dead
// connections. The websocket handler removes its own entry on a clean
// disconnect; this sweep catches everything else.
func (s *Server) rateLimitCleanupTask() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.rateLimiter.Cleanup()
	}
}

// Shutdown closes every live connection so clients learn immediately that
// the rooms are gone rather than timing out.
func (s *Server) Shutdown(ctx context.Context) error {
	conns := s.connectionManager.AllConnections()
	log.Printf("Shutting down: closing %d connections", len(conns))
	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "Server shutting down")
	}
	return nil
}
