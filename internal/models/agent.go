// Package models defines the durable and in-flight data types shared across
// the store, react, tools, streaming, and relay packages.
package models

import "time"

// Agent is the durable configuration under which a ReAct execution runs.
type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Purpose           string    `json:"purpose"`
	SystemPrompt      string    `json:"systemPrompt"`
	Tools             []string  `json:"tools"`
	ModelID           string    `json:"modelId"`
	MaxIterations     int       `json:"maxIterations"`
	ReasoningModelID  string    `json:"reasoningModelId,omitempty"`
	IsLocked          bool      `json:"isLocked"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Clone returns a deep-enough copy safe to hand to a nested execution
// without the recipient being able to mutate the store's copy.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Tools = append([]string(nil), a.Tools...)
	return &cp
}

// PromptTemplate is a reusable system-prompt preset.
type PromptTemplate struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Body        string            `json:"body"`
	Metadata    PromptMetadata    `json:"metadata"`
	IsLocked    bool              `json:"isLocked"`
}

// PromptMetadata carries the non-identifying prompt fields.
type PromptMetadata struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
	Author    string    `json:"author,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// BuiltInCategory marks a prompt template as a locked built-in.
const BuiltInCategory = "built-in"
