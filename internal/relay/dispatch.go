package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/react"
	"github.com/bluestarburst/cf-ai-local-tools/internal/store"
	"github.com/bluestarburst/cf-ai-local-tools/internal/streaming"
)

// dispatch is the full protocol switch of spec.md §4.4. handshake_ack and
// pong are server acknowledgements the client only ever receives, never
// acts on; everything else falls into either a CRUD operation against one
// of the two stores, a one-shot listing, the chat request, or (the
// catch-all default) a raw automation command.
func (s *Session) dispatch(ctx context.Context, typ, commandID string, payload map[string]any) {
	switch typ {
	case "handshake_ack", "pong":
		// Acknowledgement only; nothing to do.

	case "get_agents":
		s.reply(commandID, map[string]any{"type": "agents_list", "agents": s.Agents.List()})

	case "get_agent":
		id, _ := payload["id"].(string)
		agent, err := s.Agents.Get(id)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "agent_data", "agent": agent})

	case "create_agent":
		agent, err := decodeAgent(payload, false)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": err.Error()})
			return
		}
		if unknown := store.ValidateTools(agent.Tools, s.Tools.AvailableSet()); len(unknown) > 0 {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": fmt.Sprintf("unknown tools: %v", unknown)})
			return
		}
		if err := s.Agents.Create(agent); err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "agent_created", "agent": agent})

	case "update_agent":
		agent, err := decodeAgent(payload, true)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": err.Error()})
			return
		}
		if unknown := store.ValidateTools(agent.Tools, s.Tools.AvailableSet()); len(unknown) > 0 {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": fmt.Sprintf("unknown tools: %v", unknown)})
			return
		}
		if err := s.Agents.Update(agent); err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": lockAwareError(err)})
			return
		}
		s.reply(commandID, map[string]any{"type": "agent_updated", "agent": agent})

	case "delete_agent":
		id, _ := payload["id"].(string)
		if err := s.Agents.Delete(id); err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": lockAwareError(err)})
			return
		}
		s.reply(commandID, map[string]any{"type": "agent_deleted", "id": id})

	case "reset_agents":
		agents, err := s.Agents.Reset()
		if err != nil {
			s.reply(commandID, map[string]any{"type": "agent_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "agents_reset", "agents": agents})

	case "get_prompts":
		s.reply(commandID, map[string]any{"type": "prompts", "prompts": s.Prompts.List()})

	case "get_prompt":
		id, _ := payload["id"].(string)
		prompt, err := s.Prompts.Get(id)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "prompt_data", "prompt": prompt})

	case "create_prompt":
		prompt, err := decodePrompt(payload, false)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": err.Error()})
			return
		}
		if err := s.Prompts.Create(prompt); err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "prompt_created", "prompt": prompt})

	case "update_prompt":
		prompt, err := decodePrompt(payload, true)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": err.Error()})
			return
		}
		if err := s.Prompts.Update(prompt); err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": lockAwareError(err)})
			return
		}
		s.reply(commandID, map[string]any{"type": "prompt_updated", "prompt": prompt})

	case "delete_prompt":
		id, _ := payload["id"].(string)
		if err := s.Prompts.Delete(id); err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": lockAwareError(err)})
			return
		}
		s.reply(commandID, map[string]any{"type": "prompt_deleted", "id": id})

	case "reset_prompts":
		prompts, err := s.Prompts.Reset()
		if err != nil {
			s.reply(commandID, map[string]any{"type": "prompt_error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "prompts_reset", "prompts": prompts})

	case "get_presets":
		s.reply(commandID, map[string]any{
			"type":    "presets",
			"agents":  lockedAgents(s.Agents.List()),
			"prompts": lockedPrompts(s.Prompts.List()),
			"tools":   s.Tools.List(),
		})

	case "get_tools":
		s.reply(commandID, map[string]any{"type": "tools", "tools": s.Tools.List()})

	case "chat_request":
		s.handleChatRequest(ctx, commandID, payload)

	default:
		s.handleRawAutomation(ctx, typ, commandID, payload)
	}
}

func decodeAgent(payload map[string]any, requireID bool) (*models.Agent, error) {
	raw, ok := payload["agent"]
	if !ok {
		return nil, errors.New("missing agent field")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("decode agent: %w", err)
	}
	if requireID && agent.ID == "" {
		return nil, errors.New("agent id is required")
	}
	return &agent, nil
}

func decodePrompt(payload map[string]any, requireID bool) (*models.PromptTemplate, error) {
	raw, ok := payload["prompt"]
	if !ok {
		return nil, errors.New("missing prompt field")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var prompt models.PromptTemplate
	if err := json.Unmarshal(data, &prompt); err != nil {
		return nil, fmt.Errorf("decode prompt: %w", err)
	}
	if requireID && prompt.ID == "" {
		return nil, errors.New("prompt id is required")
	}
	return &prompt, nil
}

func lockAwareError(err error) string {
	if errors.Is(err, store.ErrLocked) {
		return "cannot modify a built-in record"
	}
	return err.Error()
}

func lockedAgents(agents []*models.Agent) []*models.Agent {
	out := make([]*models.Agent, 0, len(agents))
	for _, a := range agents {
		if a.IsLocked {
			out = append(out, a)
		}
	}
	return out
}

func lockedPrompts(prompts []*models.PromptTemplate) []*models.PromptTemplate {
	out := make([]*models.PromptTemplate, 0, len(prompts))
	for _, p := range prompts {
		if p.IsLocked {
			out = append(out, p)
		}
	}
	return out
}

// chatAgentConfig is the ephemeral, unnamed agent configuration a
// chat_request frame carries inline rather than by store id.
type chatAgentConfig struct {
	Purpose          string   `json:"purpose"`
	SystemPrompt     string   `json:"systemPrompt"`
	ModelID          string   `json:"modelId"`
	ReasoningModelID string   `json:"reasoningModelId"`
	MaxIterations    int      `json:"maxIterations"`
	Tools            []string `json:"tools"`
}

func (s *Session) handleChatRequest(ctx context.Context, commandID string, payload map[string]any) {
	message, _ := payload["message"].(string)

	var cfg chatAgentConfig
	if raw, ok := payload["agent"]; ok {
		data, err := json.Marshal(raw)
		if err == nil {
			_ = json.Unmarshal(data, &cfg)
		}
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}

	if unknown := store.ValidateTools(cfg.Tools, s.Tools.AvailableSet()); len(unknown) > 0 {
		s.reply(commandID, map[string]any{
			"type":    "chat_response",
			"error":   true,
			"content": fmt.Sprintf("Unknown tools: %v. Available tools: %v", unknown, s.Tools.List()),
		})
		return
	}

	agent := &models.Agent{
		Purpose:          cfg.Purpose,
		SystemPrompt:     cfg.SystemPrompt,
		ModelID:          cfg.ModelID,
		ReasoningModelID: cfg.ReasoningModelID,
		MaxIterations:    cfg.MaxIterations,
		Tools:            cfg.Tools,
	}

	pipeline := streaming.NewPipeline()
	sender := pipeline.Sender()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for step := range pipeline.Steps() {
			env, err := streaming.EncodeEnvelope(step)
			if err != nil {
				continue
			}
			var decoded map[string]any
			if err := json.Unmarshal(env, &decoded); err != nil {
				continue
			}
			s.reply(commandID, decoded)
		}
	}()

	dispatcher := react.NewDispatcher(s.Adapter, s.Agents, s.Tools, sender, react.DefaultMaxDelegationDepth)
	result, err := react.Execute(ctx, react.Config{
		Agent:       agent,
		UserMessage: message,
		Adapter:     s.Adapter,
		Tools:       s.Tools,
		Sender:      sender,
	}, dispatcher.Dispatch)

	sender.Release()
	<-writerDone

	if err != nil {
		s.reply(commandID, map[string]any{"type": "chat_response", "error": true, "content": err.Error()})
		return
	}
	s.reply(commandID, map[string]any{"type": "chat_response", "error": false, "content": result})
}
