package react

import (
	"context"
	"fmt"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/streaming"
	"github.com/bluestarburst/cf-ai-local-tools/internal/tools"
)

// DefaultMaxDelegationDepth is the default bound on nested delegation
// recursion, per spec.md §8's invariant ("default 3").
const DefaultMaxDelegationDepth = 3

// AgentLookup resolves an agent identifier to its configuration. Satisfied
// structurally by *store.AgentStore; kept as an interface here so
// internal/react never imports internal/store.
type AgentLookup interface {
	Get(id string) (*models.Agent, error)
}

// Dispatcher is the tool dispatcher and delegation engine of spec.md §4.2:
// a callable (tool_name, arguments) -> result that recognizes the
// delegate_to_agent sentinel and recurses into a nested Execute call
// instead of returning the sentinel to the caller.
type Dispatcher struct {
	depth    int
	maxDepth int
	adapter  llm.Adapter
	agents   AgentLookup
	tools    *tools.Registry
	sender   *streaming.Sender
}

// NewDispatcher constructs the depth-zero dispatcher for one chat request.
// maxDepth <= 0 falls back to DefaultMaxDelegationDepth.
func NewDispatcher(adapter llm.Adapter, agents AgentLookup, registry *tools.Registry, sender *streaming.Sender, maxDepth int) *Dispatcher {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDelegationDepth
	}
	return &Dispatcher{
		maxDepth: maxDepth,
		adapter:  adapter,
		agents:   agents,
		tools:    registry,
		sender:   sender,
	}
}

// Dispatch satisfies the Dispatch func type Execute calls for every tool
// invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, call models.ToolCall) (string, error) {
	result, err := d.tools.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		return "", err
	}

	sentinel, ok := tools.DetectDelegationSentinel(result)
	if !ok {
		return result, nil
	}
	return d.delegate(ctx, sentinel)
}

// delegate implements §4.2's delegation sentinel handling: depth check,
// target lookup, a cloned agent configuration, a cloned step-sender
// reference, and a recursive Execute call tagged with the target agent's
// identifier.
func (d *Dispatcher) delegate(ctx context.Context, sentinel *models.DelegationSentinel) (string, error) {
	if d.depth >= d.maxDepth {
		return "", fmt.Errorf("delegation depth exceeded for target agent %q", sentinel.TargetAgentID)
	}

	target, err := d.agents.Get(sentinel.TargetAgentID)
	if err != nil {
		return "", fmt.Errorf("delegation target %q not found: %w", sentinel.TargetAgentID, err)
	}
	targetConfig := target.Clone()

	nestedSender := d.sender.Clone()
	defer func() {
		if nestedSender != nil {
			nestedSender.Release()
		}
	}()

	nested := &Dispatcher{
		depth:    d.depth + 1,
		maxDepth: d.maxDepth,
		adapter:  d.adapter,
		agents:   d.agents,
		tools:    d.tools,
		sender:   nestedSender,
	}

	result, err := Execute(ctx, Config{
		Agent:       targetConfig,
		UserMessage: sentinel.Task,
		Adapter:     d.adapter,
		Tools:       d.tools,
		Sender:      nestedSender,
		AgentID:     targetConfig.ID,
	}, nested.Dispatch)
	if err != nil {
		return "", fmt.Errorf("delegated to agent '%s'. Error: %w", sentinel.TargetAgentID, err)
	}
	return fmt.Sprintf("Delegated to agent '%s'. Result:\n%s", sentinel.TargetAgentID, result), nil
}
