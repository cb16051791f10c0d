package react

import (
	"context"
	"testing"
	"time"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

// scriptedAdapter returns responses in order, one per Complete call,
// regardless of request contents — enough to drive the executor through a
// scripted scenario without a real LLM.
type scriptedAdapter struct {
	responses []llm.Response
	calls     int
}

func (a *scriptedAdapter) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	if a.calls >= len(a.responses) {
		a.calls++
		return &llm.Response{Response: "GOAL_COMPLETE"}, nil
	}
	resp := a.responses[a.calls]
	a.calls++
	return &resp, nil
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	if err := reg.Register(models.ToolDefinition{
		ID:          "mouse_move",
		Name:        "Mouse Move",
		Description: "move the mouse",
		Parameters: []models.ToolParameter{
			{Name: "x", Type: models.ParamNumber, Required: true},
			{Name: "y", Type: models.ParamNumber, Required: true},
		},
	}, func(_ context.Context, args map[string]any) (string, error) {
		return "moved", nil
	}); err != nil {
		t.Fatalf("register tool: %v", err)
	}
	return reg
}

func testAgent() *models.Agent {
	return &models.Agent{
		ID:            "test-agent",
		Name:          "Test Agent",
		Purpose:       "testing",
		SystemPrompt:  "Tools:\n{tools}\nPurpose: {purpose}",
		Tools:         []string{"mouse_move"},
		ModelID:       "test-model",
		MaxIterations: 5,
	}
}

func TestExecuteTerminatesOnGoalComplete(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{Response: "I am done. GOAL_COMPLETE"},
	}}
	reg := newTestRegistry(t)

	result, err := Execute(context.Background(), Config{
		Agent:       testAgent(),
		UserMessage: "do the thing",
		Adapter:     adapter,
		Tools:       reg,
	}, func(context.Context, models.ToolCall) (string, error) { return "", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Task completed: I am done. GOAL_COMPLETE"
	if result != want {
		t.Fatalf("got %q, want %q", result, want)
	}
}

func TestExecuteTerminalBranchCombinesThoughtAndResponse(t *testing.T) {
	adapter := &scriptedAdapter{responses: []llm.Response{
		{Response: "thinking about it"},
		{Response: "here is the final answer"},
	}}
	reg := newTestRegistry(t)

	result, err := Execute(context.Background(), Config{
		Agent:       testAgent(),
		UserMessage: "do the thing",
		Adapter:     adapter,
		Tools:       reg,
	}, func(context.Context, models.ToolCall) (string, error) { return "", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "thinking about it\n\nhere is the final answer"
	if result != want {
		t.Fatalf("got %q, want %q", result, want)
	}
}

func TestExecuteAbortsOnLoop(t *testing.T) {
	toolCall := models.ToolCall{Name: "mouse_move", Arguments: map[string]any{"x": 0.0, "y": 0.0}}
	responses := make([]llm.Response, 0, 6)
	for i := 0; i < 3; i++ {
		responses = append(responses,
			llm.Response{Response: "reasoning"},
			llm.Response{Response: "", ToolCalls: []models.ToolCall{toolCall}},
		)
	}
	adapter := &scriptedAdapter{responses: responses}
	reg := newTestRegistry(t)

	agent := testAgent()
	agent.MaxIterations = 10

	result, err := Execute(context.Background(), Config{
		Agent:       agent,
		UserMessage: "move repeatedly",
		Adapter:     adapter,
		Tools:       reg,
	}, func(context.Context, models.ToolCall) (string, error) { return "moved", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result[:len("I attempted to call mouse_move")]; got != "I attempted to call mouse_move" {
		t.Fatalf("expected loop-abort message, got %q", result)
	}
}

func TestExecuteRespectsMaxIterations(t *testing.T) {
	toolCall := models.ToolCall{Name: "mouse_move", Arguments: map[string]any{"x": float64(1), "y": float64(1)}}
	var responses []llm.Response
	for i := 0; i < 2; i++ {
		// Vary arguments each iteration so the loop detector never trips;
		// the max-iterations cap should fire instead.
		call := toolCall
		call.Arguments = map[string]any{"x": float64(i), "y": float64(i)}
		responses = append(responses, llm.Response{Response: "reasoning"}, llm.Response{ToolCalls: []models.ToolCall{call}})
	}
	adapter := &scriptedAdapter{responses: responses}
	reg := newTestRegistry(t)

	agent := testAgent()
	agent.MaxIterations = 2

	start := time.Now()
	result, err := Execute(context.Background(), Config{
		Agent:       agent,
		UserMessage: "keep moving",
		Adapter:     adapter,
		Tools:       reg,
	}, func(context.Context, models.ToolCall) (string, error) { return "moved", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("executor took too long")
	}
	want := "Max iterations (2) reached without completing the goal."
	if len(result) < len(want) || result[:len(want)] != want {
		t.Fatalf("expected max-iterations message, got %q", result)
	}
}
