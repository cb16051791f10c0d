package store

import (
	"time"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// defaultAgents is the locked built-in agent catalogue, grounded in
// original_source/src/registry/presets.rs: a general assistant, a desktop
// automation agent, and a web research agent, each with a tool list scoped
// to its purpose.
func defaultAgents(now time.Time) []*models.Agent {
	return []*models.Agent{
		{
			ID:            "general-assistant",
			Name:          "General Assistant",
			Purpose:       "Answer questions and carry out general tasks using available tools.",
			SystemPrompt:  "You are a helpful assistant for {purpose}.\n\nAvailable tools:\n{tools}\n\nAvailable agents you may delegate to:\n{available_agents}",
			Tools:         []string{"web_search", "url_fetch"},
			ModelID:       "claude-sonnet-4-20250514",
			MaxIterations: 10,
			IsLocked:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "desktop-automation-agent",
			Name:          "Desktop Automation Agent",
			Purpose:       "Control the mouse, keyboard, and screen to carry out desktop tasks.",
			SystemPrompt:  "You are a desktop automation agent for {purpose}.\n\nAvailable tools:\n{tools}",
			Tools:         []string{"mouse_move", "mouse_click", "mouse_scroll", "keyboard_type", "keyboard_hotkey", "screenshot", "get_mouse_position"},
			ModelID:       "claude-sonnet-4-20250514",
			MaxIterations: 15,
			IsLocked:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "web-research-agent",
			Name:          "Web Research Agent",
			Purpose:       "Research a topic by searching and reading web pages.",
			SystemPrompt:  "You are a web research agent for {purpose}.\n\nAvailable tools:\n{tools}",
			Tools:         []string{"web_search", "url_fetch"},
			ModelID:       "claude-sonnet-4-20250514",
			MaxIterations: 10,
			IsLocked:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

// defaultPrompts is the locked built-in prompt template catalogue.
func defaultPrompts(now time.Time) []*models.PromptTemplate {
	return []*models.PromptTemplate{
		{
			ID:          "react-basic",
			Name:        "ReAct Basic",
			Description: "Standard two-phase reason-then-act prompt.",
			Category:    models.BuiltInCategory,
			Body:        "You are {purpose}. Think step-by-step, then act using one of: {tools}.",
			Metadata:    models.PromptMetadata{CreatedAt: now, UpdatedAt: now, Version: 1, Author: "built-in"},
			IsLocked:    true,
		},
		{
			ID:          "enhanced-reasoning",
			Name:        "Enhanced Reasoning",
			Description: "Chain-of-thought prompt encouraging the model to check its work before acting.",
			Category:    models.BuiltInCategory,
			Body:        "You are {purpose}. Before acting, verify your plan addresses the full request. Tools: {tools}.",
			Metadata:    models.PromptMetadata{CreatedAt: now, UpdatedAt: now, Version: 1, Author: "built-in"},
			IsLocked:    true,
		},
	}
}
