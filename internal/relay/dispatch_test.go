package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/store"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

type echoAdapter struct{}

func (echoAdapter) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	return &llm.Response{Response: "done GOAL_COMPLETE"}, nil
}

func newTestSession(t *testing.T) *Session {
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
	if err := reg.Register(models.ToolDefinition{
		ID: "mouse_move", Name: "Mouse Move",
		Parameters: []models.ToolParameter{
			{Name: "x", Type: models.ParamNumber, Required: true},
			{Name: "y", Type: models.ParamNumber, Required: true},
		},
	}, func(_ context.Context, _ map[string]any) (string, error) {
		return "moved", nil
	}); err != nil {
		t.Fatalf("register tool: %v", err)
	}
	return &Session{
		Agents:  agents,
		Prompts: prompts,
		Tools:   reg,
		Adapter: echoAdapter{},
		Logger:  slog.Default(),
	}
}

func TestDecodeAgentRequiresIDWhenRequired(t *testing.T) {
	_, err := decodeAgent(map[string]any{"agent": map[string]any{"name": "no id"}}, true)
	if err == nil {
		t.Fatal("expected error for missing agent id")
	}
}

func TestDecodeAgentAllowsMissingIDForCreate(t *testing.T) {
	agent, err := decodeAgent(map[string]any{"agent": map[string]any{"name": "no id"}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.ID != "" {
		t.Fatalf("expected empty id, got %q", agent.ID)
	}
}

func TestDecodePromptRequiresIDWhenRequired(t *testing.T) {
	_, err := decodePrompt(map[string]any{"prompt": map[string]any{"name": "no id"}}, true)
	if err == nil {
		t.Fatal("expected error for missing prompt id")
	}
}

func TestDecodePromptAllowsMissingIDForCreate(t *testing.T) {
	prompt, err := decodePrompt(map[string]any{"prompt": map[string]any{"name": "no id"}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt.ID != "" {
		t.Fatalf("expected empty id, got %q", prompt.ID)
	}
}

func TestLockAwareErrorMapsLocked(t *testing.T) {
	if got := lockAwareError(store.ErrLocked); got != "cannot modify a built-in record" {
		t.Fatalf("got %q", got)
	}
}

func TestLockedAgentsFiltersUnlocked(t *testing.T) {
	in := []*models.Agent{{ID: "a", IsLocked: true}, {ID: "b", IsLocked: false}}
	out := lockedAgents(in)
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("got %+v", out)
	}
}

func TestRawCommandToolMapping(t *testing.T) {
	if _, ok := rawCommandTool["bogus_command"]; ok {
		t.Fatal("unexpected mapping for a command type that doesn't exist")
	}
	if tool, ok := rawCommandTool["keyboard_input"]; !ok || tool != "keyboard_type" {
		t.Fatalf("expected keyboard_input to map to keyboard_type, got %q ok=%v", tool, ok)
	}
	if tool, ok := rawCommandTool["keyboard_command"]; !ok || tool != "keyboard_hotkey" {
		t.Fatalf("expected keyboard_command to map to keyboard_hotkey, got %q ok=%v", tool, ok)
	}
}

func TestDispatchUnknownAutomationCommandRepliesError(t *testing.T) {
	s := newTestSession(t)
	var captured map[string]any
	s.replyFn = func(_ string, payload map[string]any) { captured = payload }

	s.dispatch(context.Background(), "bogus_command", "cmd-0", map[string]any{})

	if captured == nil || captured["type"] != "error" {
		t.Fatalf("got %+v", captured)
	}
}

func TestDispatchGetToolsListsRegistered(t *testing.T) {
	s := newTestSession(t)
	var captured map[string]any
	s.replyFn = func(_ string, payload map[string]any) { captured = payload }

	s.dispatch(context.Background(), "get_tools", "", map[string]any{})

	if captured["type"] != "tools" {
		t.Fatalf("got %+v", captured)
	}
	list, ok := captured["tools"].([]models.ToolDefinition)
	if !ok || len(list) != 1 || list[0].ID != "mouse_move" {
		t.Fatalf("got %+v", captured["tools"])
	}
}

func TestDispatchCommandIDPassthrough(t *testing.T) {
	s := newTestSession(t)
	var captured map[string]any
	s.replyFn = func(commandID string, payload map[string]any) {
		if commandID != "" {
			payload["commandId"] = commandID
		}
		captured = payload
	}

	s.dispatch(context.Background(), "get_tools", "abc-123", map[string]any{})

	if captured["commandId"] != "abc-123" {
		t.Fatalf("expected commandId to be echoed byte for byte, got %+v", captured)
	}
}

func TestHandleChatRequestRejectsUnknownTools(t *testing.T) {
	s := newTestSession(t)
	var captured map[string]any
	s.replyFn = func(_ string, payload map[string]any) { captured = payload }

	s.handleChatRequest(context.Background(), "cmd-1", map[string]any{
		"message": "hi",
		"agent": map[string]any{
			"tools":         []any{"no_such_tool"},
			"maxIterations": 3,
		},
	})

	if captured == nil {
		t.Fatal("expected a reply to be captured")
	}
	if captured["type"] != "chat_response" || captured["error"] != true {
		t.Fatalf("got %+v", captured)
	}
}

func TestHandleChatRequestSucceeds(t *testing.T) {
	s := newTestSession(t)
	var captured []map[string]any
	s.replyFn = func(_ string, payload map[string]any) {
		captured = append(captured, payload)
	}

	s.handleChatRequest(context.Background(), "cmd-2", map[string]any{
		"message": "do something",
		"agent": map[string]any{
			"systemPrompt":  "Tools:\n{tools}",
			"tools":         []any{"mouse_move"},
			"maxIterations": 3,
		},
	})

	if len(captured) == 0 {
		t.Fatal("expected at least one reply")
	}
	last := captured[len(captured)-1]
	if last["type"] != "chat_response" {
		t.Fatalf("expected final frame to be chat_response, got %+v", last)
	}
	if last["error"] != false {
		t.Fatalf("expected success, got %+v", last)
	}
	data, _ := json.Marshal(last["content"])
	if string(data) == `""` {
		t.Fatal("expected non-empty content")
	}
}
