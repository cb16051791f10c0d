// Package react implements the two-phase ReAct executor (§4.1) and, in
// dispatcher.go, the delegation engine that wraps it (§4.2). Both live in
// one package because the dispatcher recursively calls Execute and Execute
// calls back into the dispatcher for every tool invocation — putting them
// in separate packages would force an import cycle.
//
// Grounded on internal/agent/loop.go's iteration/state-machine idiom,
// restructured from one streaming LLM call per iteration into the two
// explicit reasoning/action calls src/agents/react_loop.rs performs, and on
// internal/agent/executor.go's sequential-execution discipline (adapted
// from parallel to strictly sequential tool calls per spec.md's ordering
// invariant).
package react

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/streaming"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

// Dispatch executes one tool call and returns its string result, the
// boundary between the executor and the tool dispatcher/delegation engine.
type Dispatch func(ctx context.Context, call models.ToolCall) (string, error)

// Config bundles everything one Execute call needs.
type Config struct {
	Agent           *models.Agent
	UserMessage     string
	Adapter         llm.Adapter
	Tools           *tools.Registry
	Sender          *streaming.Sender // nil disables step emission
	AgentID         string            // tags emitted steps; empty for the top-level execution
	AvailableAgents string            // pre-built {available_agents} listing; empty if unused
}

// Execute runs the bounded reasoning/action loop described in spec.md
// §4.1 and returns the final response string, or an error for the
// "Configuration" or "LLM transport" taxonomy kinds (§7). Tool-execution,
// delegation, and loop-detection failures are recovered locally and
// returned as part of the response string, never as an error.
func Execute(ctx context.Context, cfg Config, dispatch Dispatch) (string, error) {
	if cfg.Agent == nil {
		return "", fmt.Errorf("react: agent configuration is required")
	}
	if cfg.Agent.MaxIterations <= 0 {
		return "", fmt.Errorf("react: agent %q has a non-positive max iterations", cfg.Agent.ID)
	}

	enabled := cfg.Tools.Available(cfg.Agent.Tools)
	llmTools := tools.BuildLLMTools(enabled)
	listing := tools.ToolsListing(enabled)
	systemPrompt := interpolateSystemPrompt(cfg.Agent.SystemPrompt, listing, cfg.Agent.Purpose, cfg.AvailableAgents)

	messages := []llm.Message{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: cfg.UserMessage},
	}

	reasoningModel := cfg.Agent.ModelID
	if cfg.Agent.ReasoningModelID != "" {
		reasoningModel = cfg.Agent.ReasoningModelID
	}

	var hist history

	for iteration := 1; iteration <= cfg.Agent.MaxIterations; iteration++ {
		// Phase 1: reasoning, no tool schemas.
		reasoningMessages := append(cloneMessages(messages), llm.Message{Role: models.RoleUser, Content: reasoningPrompt})
		reasoningResp, err := cfg.Adapter.Complete(ctx, llm.Request{
			Messages: reasoningMessages,
			Model:    reasoningModel,
		})
		if err != nil {
			return "", fmt.Errorf("react: reasoning call failed: %w", err)
		}

		thought := strings.TrimSpace(reasoningResp.Response)
		if strings.Contains(strings.ToUpper(thought), goalCompleteToken) {
			return "Task completed: " + thought, nil
		}
		if thought == "" {
			thought = "Processing user request: " + cfg.UserMessage
		}

		// Phase 2: action, with tool schemas.
		actionMessages := append(cloneMessages(messages),
			llm.Message{Role: models.RoleAssistant, Content: thought},
			llm.Message{Role: models.RoleUser, Content: actionPrompt},
		)
		actionResp, err := cfg.Adapter.Complete(ctx, llm.Request{
			Messages: actionMessages,
			Model:    cfg.Agent.ModelID,
			Tools:    llmTools,
		})
		if err != nil {
			return "", fmt.Errorf("react: action call failed: %w", err)
		}

		if len(actionResp.ToolCalls) > 0 {
			final, loopAborted := handleToolCalls(ctx, cfg, &hist, &messages, iteration, thought, actionResp, dispatch)
			if loopAborted {
				return final, nil
			}
			continue
		}

		// Terminal branch: no tool calls.
		return combineFinal(thought, actionResp.Response), nil
	}

	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return fmt.Sprintf(
		"Max iterations (%d) reached without completing the goal. The task may require a different approach or additional tools. Last thought: '%s'",
		cfg.Agent.MaxIterations, last,
	), nil
}

// handleToolCalls runs phase 2's tool-call branch for one iteration: loop
// detection on the first call, sequential execution of every call, step
// emission, and appending the observation message. Returns (response, true)
// when a loop-abort fires, in which case the caller must return
// immediately; otherwise returns ("", false) and messages has already been
// extended for the next iteration.
func handleToolCalls(ctx context.Context, cfg Config, hist *history, messages *[]llm.Message, iteration int, thought string, actionResp *llm.Response, dispatch Dispatch) (string, bool) {
	first := actionResp.ToolCalls[0]
	sig := newSignature(first)
	if hist.count(sig) >= loopTripThreshold {
		return fmt.Sprintf(
			"I attempted to call %s multiple times with the same parameters but couldn't make progress. "+
				"The task may require different tools or a different approach. Last attempted: %s with %s",
			first.Name, first.Name, canonicalArgs(first.Arguments),
		), true
	}
	hist.push(sig)

	emitStep(cfg, models.ExecutionStep{
		StepNumber: iteration,
		Type:       models.StepAction,
		Content:    thought,
		Action:     &models.ActionCall{Tool: first.Name, Parameters: first.Arguments},
		Timestamp:  time.Now(),
		AgentID:    cfg.AgentID,
	})

	*messages = append(*messages, llm.Message{Role: models.RoleAssistant, Content: actionResp.Response})

	observations := make([]string, 0, len(actionResp.ToolCalls))
	for idx, call := range actionResp.ToolCalls {
		result, err := dispatch(ctx, call)
		failed := err != nil
		if failed {
			result = err.Error()
		}
		status := "SUCCESS"
		verb := "Succeeded"
		if failed {
			status, verb = "FAILED", "Failed"
		}
		formatted := fmt.Sprintf("[%s] Tool '%s': %s\nDetails: %s", status, call.Name, verb, result)

		obs := &models.Observation{Success: !failed, Message: formatted}
		if failed {
			obs.Error = err.Error()
		}
		emitStep(cfg, models.ExecutionStep{
			StepNumber: iteration,
			Type:       models.StepObservation,
			Content:    fmt.Sprintf("Executed %s (tool %d/%d)", call.Name, idx+1, len(actionResp.ToolCalls)),
			Action:     &models.ActionCall{Tool: call.Name, Parameters: call.Arguments},
			Observation: obs,
			Timestamp:   time.Now(),
			AgentID:     cfg.AgentID,
		})
		observations = append(observations, formatted)
	}

	*messages = append(*messages, llm.Message{
		Role: models.RoleUser,
		Content: "Latest Observations:\n" + strings.Join(observations, "\n\n") +
			"\n\nReflect on these results and decide the next action to progress toward the goal. If errors occurred, adapt your approach.",
	})
	return "", false
}

func emitStep(cfg Config, step models.ExecutionStep) {
	if cfg.Sender == nil {
		return
	}
	cfg.Sender.Send(step)
}

// combineFinal joins the reasoning thought and the terminal response text,
// preserving both halves when both exist, matching the two distinct
// terminal shapes spec.md §9(c) requires.
func combineFinal(thought, response string) string {
	switch {
	case thought != "" && response != "":
		return thought + "\n\n" + response
	case response != "":
		return response
	default:
		return thought
	}
}

func cloneMessages(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}
