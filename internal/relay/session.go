// Package relay implements the client-side half of the relay protocol
// (§4.4, §6): dialing the WebSocket, sending the handshake, the fixed
// 5-second reconnect loop, and dispatching inbound frames to the agent and
// prompt stores, the tool table, and the ReAct executor.
//
// Grounded on internal/gateway/ws_control_plane.go's wsSession (frame
// shape, read/write-loop split, socket-write mutex discipline), adapted
// from server-accept (Upgrader.Upgrade) to client-dial (websocket.Dialer),
// and on internal/channels/reconnect.go's retry-loop shape, simplified from
// exponential backoff to spec.md's flat 5-second interval.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/store"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

const (
	reconnectInterval = 5 * time.Second
	clientName        = "cf-ai-local-tools"
	clientVersion     = "0.1.0"
	writeWait         = 10 * time.Second
	pongWait          = 45 * time.Second
)

// Session owns one relay connection's lifetime: dial, handshake, receive
// loop, and the process-wide singletons every dispatched frame needs.
type Session struct {
	URL      string
	Agents   *store.AgentStore
	Prompts  *store.PromptStore
	Tools    *tools.Registry
	Adapter  llm.Adapter
	Logger   *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	// replyFn, when set, intercepts reply() instead of writing to conn; used
	// by tests to exercise dispatch without a live socket.
	replyFn func(commandID string, payload map[string]any)
}

// NewSession constructs a session; conn is established by Run.
func NewSession(url string, agents *store.AgentStore, prompts *store.PromptStore, registry *tools.Registry, adapter llm.Adapter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		URL:     url,
		Agents:  agents,
		Prompts: prompts,
		Tools:   registry,
		Adapter: adapter,
		Logger:  logger.With("component", "relay.session"),
	}
}

// Run dials, handshakes, and serves frames until ctx is cancelled. On any
// disconnect it waits reconnectInterval and retries, matching
// src/main.rs's outer connect_and_run loop: no in-flight execution is
// carried over a reconnect, and every reconnect re-sends the handshake.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.connectAndServe(ctx); err != nil {
			s.Logger.Warn("relay connection ended", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectInterval):
		}
	}
}

func (s *Session) connectAndServe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	s.conn = conn
	defer conn.Close()

	if err := s.sendHandshake(); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		s.handleRaw(ctx, data)
	}
}

func (s *Session) sendHandshake() error {
	return s.writeJSON(map[string]any{
		"type":    "handshake",
		"client":  clientName,
		"version": clientVersion,
		"tools":   s.Tools.List(),
		"agents":  s.Agents.List(),
	})
}

func (s *Session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// reply stamps commandId onto payload (when non-empty) before writing it,
// the byte-for-byte passthrough spec.md §4.4 requires.
func (s *Session) reply(commandID string, payload map[string]any) {
	if commandID != "" {
		payload["commandId"] = commandID
	}
	if s.replyFn != nil {
		s.replyFn(commandID, payload)
		return
	}
	if err := s.writeJSON(payload); err != nil {
		s.Logger.Warn("failed to write relay response", "error", err)
	}
}

// handleRaw decodes one inbound text frame, extracts and strips type/
// commandId exactly as src/main.rs's connect_and_run does, and dispatches
// on the remainder.
func (s *Session) handleRaw(ctx context.Context, data []byte) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.reply("", map[string]any{"type": "error", "error": "Invalid command format: " + err.Error()})
		return
	}

	typ, _ := raw["type"].(string)
	commandID, _ := raw["commandId"].(string)
	delete(raw, "type")
	delete(raw, "commandId")

	s.dispatch(ctx, typ, commandID, raw)
}
