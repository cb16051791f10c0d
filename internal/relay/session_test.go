package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bluestarburst/cf-ai-local-tools/internal/store"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

// echoServer upgrades every connection and records the first frame it
// receives (expected to be the handshake), then closes immediately so Run's
// reconnect loop has something to observe.
func echoServer(t *testing.T, received chan<- map[string]any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame map[string]any
		_ = json.Unmarshal(data, &frame)
		select {
		case received <- frame:
		default:
		}
	}))
}

func newSessionAgainst(t *testing.T, url string) *Session {
	t.Helper()
	dir := t.TempDir()
	agents, err := store.NewAgentStore(store.WithAgentStoreBasePath(dir))
	if err != nil {
		t.Fatalf("new agent store: %v", err)
	}
	prompts, err := store.NewPromptStore(store.WithPromptStoreBasePath(dir))
	if err != nil {
		t.Fatalf("new prompt store: %v", err)
	}
	reg := tools.NewRegistry()
	return NewSession(url, agents, prompts, reg, echoAdapter{}, slog.Default())
}

func TestSessionSendsHandshakeOnConnect(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := echoServer(t, received)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	sess := newSessionAgainst(t, wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = sess.Run(ctx)

	select {
	case frame := <-received:
		if frame["type"] != "handshake" {
			t.Fatalf("expected handshake frame, got %+v", frame)
		}
		if frame["client"] != clientName {
			t.Fatalf("expected client name %q, got %+v", clientName, frame["client"])
		}
	default:
		t.Fatal("server never received a frame")
	}
}

func TestSessionRunReturnsWhenContextCancelled(t *testing.T) {
	received := make(chan map[string]any, 4)
	srv := echoServer(t, received)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	sess := newSessionAgainst(t, wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context-cancellation error from Run")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after its reconnect wait and context cancellation")
	}
}
