package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockBackend creates a test WebSocket server.
func mockBackend(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:              url,
		SessionID:        "test-session",
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       100,
	}
}

func TestClient_Connect(t *testing.T) {
	server := mockBackend(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected = false after Connect")
	}
}

func TestClient_SessionHeader(t *testing.T) {
	headerCh := make(chan string, 1)
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerCh <- r.Header.Get("X-Session-ID")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case got := <-headerCh:
		if got != "test-session" {
			t.Errorf("X-Session-ID = %q, want %q", got, "test-session")
		}
	case <-time.After(time.Second):
		t.Fatal("server never saw the handshake")
	}
}

func TestClient_SendReceive(t *testing.T) {
	server := mockBackend(t, func(conn *websocket.Conn) {
		// Echo server
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if err := client.Send([]byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-client.Messages():
		if string(got) != `{"type":"ping"}` {
			t.Errorf("echoed = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no echo received")
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	client := NewClient(testClientConfig("ws://localhost:1"), nil)

	if err := client.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestClient_CleanCloseFromServer(t *testing.T) {
	server := mockBackend(t, func(conn *websocket.Conn) {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second),
		)
		// Wait for the client's close reply
		conn.ReadMessage()
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case err := <-client.Errors():
		if !IsCleanClose(err) {
			t.Errorf("IsCleanClose(%v) = false, want true", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close never surfaced")
	}
}

func TestClient_AbortLooksUnclean(t *testing.T) {
	server := mockBackend(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	client.Abort()

	select {
	case err := <-client.Errors():
		if IsCleanClose(err) {
			t.Errorf("Abort should not look like a clean close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("abort never surfaced on the errors channel")
	}
}

func TestClient_ConnectAfterClose(t *testing.T) {
	client := NewClient(testClientConfig("ws://localhost:1"), nil)
	client.Close()

	if err := client.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("err = %v, want ErrAlreadyClosed", err)
	}
}
