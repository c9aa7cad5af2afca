package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/elementcapture/game/engine"
)

func testBoard(t *testing.T) *engine.BoardView {
	t.Helper()
	eng, err := engine.NewEngine(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	view := eng.View()
	return &view
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func dialHub(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return hub.ClientCount(sessionID) == 1 })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message Message
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	return message
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || cap(hub.broadcast) != broadcastBuffer {
		t.Error("Hub broadcast channel should be buffered")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register/unregister channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client1 := &Client{hub: hub, sessionID: "abcd", send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, sessionID: "abcd", send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount("abcd") != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount("abcd"))
	}
	if hub.ClientCount("ABCD") != 2 {
		t.Error("ClientCount should ignore session ID case")
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("abcd") != 1 {
		t.Errorf("Expected 1 client remaining, got %d", hub.ClientCount("abcd"))
	}
	if !hub.sessions["abcd"][client2] {
		t.Error("client2 should still be registered")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions["abcd"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// Unregistering twice must not close the channel again
	hub.unregisterClient(client2)
}

func TestHubBroadcastBoard(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "b00d", send: make(chan []byte, 256)}
	other := &Client{hub: hub, sessionID: "f00d", send: make(chan []byte, 256)}
	hub.registerClient(client)
	hub.registerClient(other)

	board := testBoard(t)
	hub.BroadcastBoard("B00D", board)

	select {
	case message := <-hub.broadcast:
		hub.broadcastMessage(message)
	default:
		t.Fatal("BroadcastBoard did not queue a message")
	}

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "b00d" || message.Event != EventBoardUpdate {
			t.Errorf("Unexpected envelope %+v", message)
		}
		if message.Board == nil || message.Board.Rows != board.Rows || len(message.Board.Tiles) != len(board.Tiles) {
			t.Error("Board not correctly transmitted")
		}
	default:
		t.Error("No message delivered to session client")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the broadcast")
	default:
	}
}

func drain(client *Client) []Message {
	var messages []Message
	for {
		select {
		case data := <-client.send:
			var message Message
			json.Unmarshal(data, &message)
			messages = append(messages, message)
		default:
			return messages
		}
	}
}

func TestHubDropsStaleBoards(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "a1b2", send: make(chan []byte, 256)}
	hub.registerClient(client)

	board := func(revision int) *Message {
		b := testBoard(t)
		b.Revision = revision
		return &Message{SessionID: "a1b2", Event: EventBoardUpdate, Board: b}
	}

	// The later tap's broadcast reaches the hub first
	hub.broadcastMessage(board(2))
	hub.broadcastMessage(board(1))
	hub.broadcastMessage(board(2))

	got := drain(client)
	if len(got) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(got))
	}
	for _, message := range got {
		if message.Board.Revision != 2 {
			t.Errorf("Expected only revision 2, got %d", message.Board.Revision)
		}
	}

	t.Run("events are never dropped", func(t *testing.T) {
		hub.broadcastMessage(&Message{SessionID: "a1b2", Event: "tick"})
		if got := drain(client); len(got) != 1 || got[0].Event != "tick" {
			t.Errorf("Expected tick event, got %+v", got)
		}
	})

	t.Run("deleted session starts over", func(t *testing.T) {
		hub.broadcastMessage(&Message{SessionID: "a1b2", Event: EventSessionDeleted})
		hub.broadcastMessage(board(0))
		got := drain(client)
		if len(got) != 2 || got[1].Board == nil || got[1].Board.Revision != 0 {
			t.Errorf("Expected delete event then revision 0, got %+v", got)
		}
	})

	t.Run("last client leaving forgets the session", func(t *testing.T) {
		hub.broadcastMessage(board(5))
		hub.unregisterClient(client)
		if _, ok := hub.revisions["a1b2"]; ok {
			t.Error("Expected revision to be forgotten")
		}

		next := &Client{hub: hub, sessionID: "a1b2", send: make(chan []byte, 256)}
		hub.registerClient(next)
		hub.broadcastMessage(board(3))
		if got := drain(next); len(got) != 1 {
			t.Errorf("Expected new client to get revision 3, got %d messages", len(got))
		}
	})
}

func TestHubBroadcastEventDropsWhenFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastEvent("full", "tick", i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected queue capped at %d, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub, "ws01")

	hub.BroadcastBoard("ws01", testBoard(t))
	message := readMessage(t, conn)
	if message.Event != EventBoardUpdate || message.Board == nil {
		t.Fatalf("Expected board update, got %+v", message)
	}
	if message.Board.ActivePlayer != engine.Player1 {
		t.Errorf("Expected player1 to move, got %s", message.Board.ActivePlayer)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws01") == 0 })
}

func TestWebSocketInboundTap(t *testing.T) {
	hub := startHub(t)

	taps := make(chan engine.Coordinate, 4)
	tapped := testBoard(t)
	tapped.Message = "tapped"
	hub.SetTapHandler(func(ctx context.Context, sessionID string, coord engine.Coordinate) (*engine.BoardView, error) {
		if coord.Row < 0 {
			return nil, errors.New("coordinate out of bounds")
		}
		taps <- coord
		return tapped, nil
	})

	conn := dialHub(t, hub, "tap1")

	t.Run("tap is applied and broadcast", func(t *testing.T) {
		if err := conn.WriteJSON(ClientMessage{Action: "tap", Row: 2, Col: 1}); err != nil {
			t.Fatal(err)
		}
		message := readMessage(t, conn)
		if message.Event != EventBoardUpdate || message.Board.Message != "tapped" {
			t.Fatalf("Expected tapped board update, got %+v", message)
		}
		if got := <-taps; got != (engine.Coordinate{Row: 2, Col: 1}) {
			t.Errorf("Handler got %v", got)
		}
	})

	t.Run("handler error goes back to sender", func(t *testing.T) {
		conn.WriteJSON(ClientMessage{Action: "tap", Row: -1, Col: 0})
		message := readMessage(t, conn)
		if message.Event != EventError || !strings.Contains(message.Error, "out of bounds") {
			t.Errorf("Expected error reply, got %+v", message)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		conn.WriteJSON(map[string]string{"action": "move"})
		message := readMessage(t, conn)
		if message.Event != EventError {
			t.Errorf("Expected error reply, got %+v", message)
		}
	})
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conn := dialHub(t, hub, "bye0")
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection to be closed after shutdown")
	}
	if hub.ClientCount("bye0") != 0 {
		t.Error("Expected no clients after shutdown")
	}
}
