package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
)

func setupTestServer() (*Server, string, func()) {
	s := &Server{
		connectionManager: NewConnectionManager(),
		roomManager:       NewRoomManager(false),
		rateLimiter:       NewRateLimiter(100, time.Second),
	}

	server := httptest.NewServer(http.HandlerFunc(s.websocketHandler))
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/websocket"

	cleanup := func() {
		server.Close()
	}

	return s, url, cleanup
}

// sendEvent marshals a client event and writes it to the socket.
func sendEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal %s payload: %v", msgType, err)
	}
	data, err := json.Marshal(ClientMessage{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("failed to marshal %s message: %v", msgType, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to parse message: %v", err)
	}
	return msg
}

// readUntil consumes messages until one of the wanted type arrives. Broadcast
// tests don't care about interleaved notifications, so everything else is
// skipped.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) ServerMessage {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := readEvent(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("never received a %s message", msgType)
	return ServerMessage{}
}

func payloadField(t *testing.T, msg ServerMessage, key string) interface{} {
	t.Helper()

	obj, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload of %s is not an object: %v", msg.Type, msg.Payload)
	}
	return obj[key]
}

func TestRootHandler(t *testing.T) {
	s := &Server{roomManager: NewRoomManager(false)}
	server := httptest.NewServer(http.HandlerFunc(s.rootHandler))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("error making request to server: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"message":"word traitor server"}`, string(body))
}

func TestHealthHandler(t *testing.T) {
	s := &Server{roomManager: NewRoomManager(false)}
	s.roomManager.CreateRoom("ABCDE", 4)

	server := httptest.NewServer(http.HandlerFunc(s.healthHandler))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("error making request to server: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"status":"up","rooms":"1"}`, string(body))
}

func TestWebSocketPingPong(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	conn, _, err := websocket.Dial(ctx, url, nil)
	assert.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendEvent(t, ctx, conn, "ping", struct{}{})

	response := readEvent(t, conn)
	assert.Equal("pong", response.Type)
}

func TestWebSocketInvalidJSON(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	conn, _, err := websocket.Dial(ctx, url, nil)
	assert.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	err = conn.Write(ctx, websocket.MessageText, []byte("junk"))
	assert.NoError(err)

	response := readEvent(t, conn)
	assert.Equal("roomError", response.Type)
	assert.Contains(payloadField(t, response, "error"), "INVALID_JSON")

	// The connection survives a bad message.
	sendEvent(t, ctx, conn, "ping", struct{}{})
	response = readEvent(t, conn)
	assert.Equal("pong", response.Type)
}

func TestWebSocketUnknownMessageType(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	conn, _, err := websocket.Dial(ctx, url, nil)
	assert.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendEvent(t, ctx, conn, "dance", struct{}{})

	response := readEvent(t, conn)
	assert.Equal("roomError", response.Type)
	assert.Contains(payloadField(t, response, "error"), "INVALID_MESSAGE_TYPE")
}

func TestWebSocketConnectionRegistration(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	s, url, cleanup := setupTestServer()
	defer cleanup()

	s.connectionManager.mu.RLock()
	initialCount := len(s.connectionManager.connections)
	s.connectionManager.mu.RUnlock()
	assert.Equal(0, initialCount)

	conn, _, err := websocket.Dial(ctx, url, nil)
	assert.NoError(err)

	// A round trip guarantees the handler has registered the connection;
	// Dial returns before AddConnection runs.
	sendEvent(t, ctx, conn, "ping", struct{}{})
	readEvent(t, conn)

	s.connectionManager.mu.RLock()
	connected := len(s.connectionManager.connections)
	s.connectionManager.mu.RUnlock()
	assert.Equal(1, connected)

	conn.Close(websocket.StatusNormalClosure, "")

	// Close returns before the handler's deferred cleanup completes.
	time.Sleep(10 * time.Millisecond)

	s.connectionManager.mu.RLock()
	finalCount := len(s.connectionManager.connections)
	s.connectionManager.mu.RUnlock()
	assert.Equal(0, finalCount)
}

func TestWebSocketRateLimiting(t *testing.T) {
	assert := assert.New(t)

	ctx := context.Background()
	s, url, cleanup := setupTestServer()
	defer cleanup()

	s.rateLimiter = NewRateLimiter(2, time.Second)

	conn, _, err := websocket.Dial(ctx, url, nil)
	assert.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for i := 0; i < 2; i++ {
		sendEvent(t, ctx, conn, "ping", struct{}{})
		response := readEvent(t, conn)
		assert.Equal("pong", response.Type, "Request %d should succeed", i+1)
	}

	sendEvent(t, ctx, conn, "ping", struct{}{})
	response := readEvent(t, conn)
	assert.Equal("roomError", response.Type)
	assert.Contains(payloadField(t, response, "error"), "RATE_LIMIT_EXCEEDED")
}
