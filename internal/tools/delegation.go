package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// DelegationToolID is the reserved tool identifier the dispatcher recognizes
// as the delegation sentinel, per src/tools/delegation/delegate_to_agent.rs.
const DelegationToolID = "delegate_to_agent"

// delegationMarker is the reserved key (the JSON tag of
// delegationPayload.Marker) that marks a tool result as a delegation
// hand-off. DetectDelegationSentinel decodes any result that starts with '{'
// and accepts it only when this key is true, so ordinary tool results that
// happen to be valid JSON are not misread as delegations.
const delegationMarker = "__delegation__"

type delegationPayload struct {
	Marker       bool   `json:"__delegation__"`
	TargetAgent  string `json:"target_agent"`
	Task         string `json:"task"`
}

// EncodeDelegationSentinel serializes a delegation hand-off as the
// specially framed string the dispatcher tests every tool result against.
func EncodeDelegationSentinel(targetAgent, task string) string {
	raw, _ := json.Marshal(delegationPayload{Marker: true, TargetAgent: targetAgent, Task: task})
	return string(raw)
}

// DetectDelegationSentinel reports whether result is a delegation hand-off,
// returning the decoded sentinel when it is.
func DetectDelegationSentinel(result string) (*models.DelegationSentinel, bool) {
	if len(result) == 0 || result[0] != '{' {
		return nil, false
	}
	var payload delegationPayload
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		return nil, false
	}
	if !payload.Marker {
		return nil, false
	}
	return &models.DelegationSentinel{TargetAgentID: payload.TargetAgent, Task: payload.Task}, true
}

// DelegateToAgentDefinition is the static schema for the delegation tool,
// grounded literally on DelegateToAgent::new() in delegate_to_agent.rs.
func DelegateToAgentDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID:          DelegationToolID,
		Name:        "Delegate to Agent",
		Description: "Delegate a task to another specialized agent",
		Category:    "delegation",
		Parameters: []models.ToolParameter{
			{
				Name:        "target_agent",
				Type:        models.ParamString,
				Description: "ID of the agent to delegate to",
				Required:    true,
			},
			{
				Name:        "task",
				Type:        models.ParamString,
				Description: "Task description to delegate",
				Required:    true,
			},
			{
				Name:        "required_capabilities",
				Type:        models.ParamArray,
				Description: "Capabilities the target agent must have",
				Default:     []string{},
			},
			{
				Name:        "priority",
				Type:        models.ParamString,
				Description: "Delegation priority (low, normal, high, critical)",
				Enum:        []string{"low", "normal", "high", "critical"},
				Default:     "normal",
			},
			{
				Name:        "timeout_seconds",
				Type:        models.ParamNumber,
				Description: "Maximum time to wait for delegation completion",
				Default:     300,
			},
			{
				Name:        "context_data",
				Type:        models.ParamObject,
				Description: "Additional context data to pass to the delegated agent",
				Default:     map[string]any{},
			},
		},
	}
}

// NewDelegateToAgentExecutor returns the delegation tool's opaque executor:
// it does no delegation itself, it only encodes the sentinel the dispatcher
// detects and acts on (the dispatcher, not this executor, performs the
// nested ReAct execution).
func NewDelegateToAgentExecutor() Executor {
	return func(_ context.Context, args map[string]any) (string, error) {
		target, _ := args["target_agent"].(string)
		task, _ := args["task"].(string)
		if target == "" || task == "" {
			return "", fmt.Errorf("delegate_to_agent requires target_agent and task")
		}
		return EncodeDelegationSentinel(target, task), nil
	}
}
