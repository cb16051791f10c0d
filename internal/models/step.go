package models

import (
	"encoding/json"
	"time"
)

// StepType classifies one unit of observable execution progress.
type StepType string

const (
	StepThinking    StepType = "Thinking"
	StepPlanning    StepType = "Planning"
	StepAction      StepType = "Action"
	StepObservation StepType = "Observation"
	StepReflection  StepType = "Reflection"
	StepCompletion  StepType = "Completion"
)

// ActionCall is the tool-call portion of an Action step.
type ActionCall struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// Observation is the outcome portion of an Observation step.
type Observation struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ExecutionStep is the unit emitted to the client during a ReAct execution.
type ExecutionStep struct {
	StepNumber  int          `json:"stepNumber"`
	Type        StepType     `json:"-"`
	Content     string       `json:"-"`
	Action      *ActionCall  `json:"action,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	AgentID     string       `json:"agentId,omitempty"`
}

// executionStepWire is the wire shape spec'd by the step streaming fabric:
// the Content field surfaces as "thought" only when the step is a Thinking
// step, matching the envelope field-name table. Shared by MarshalJSON and
// UnmarshalJSON so the two stay in lockstep.
type executionStepWire struct {
	StepNumber  int          `json:"stepNumber"`
	StepType    StepType     `json:"stepType"`
	Thought     string       `json:"thought,omitempty"`
	Content     string       `json:"content,omitempty"`
	Action      *ActionCall  `json:"action,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
	Timestamp   string       `json:"timestamp"`
	AgentID     string       `json:"agentId,omitempty"`
}

// MarshalJSON renders s in its wire shape.
func (s ExecutionStep) MarshalJSON() ([]byte, error) {
	w := executionStepWire{
		StepNumber:  s.StepNumber,
		StepType:    s.Type,
		Action:      s.Action,
		Observation: s.Observation,
		Timestamp:   s.Timestamp.Format(time.RFC3339),
		AgentID:     s.AgentID,
	}
	if s.Type == StepThinking {
		w.Thought = s.Content
	} else {
		w.Content = s.Content
	}
	return json.Marshal(w)
}

// UnmarshalJSON inverts MarshalJSON's wire mapping: stepType becomes Type,
// and whichever of thought/content is present becomes Content.
func (s *ExecutionStep) UnmarshalJSON(data []byte) error {
	var w executionStepWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.StepNumber = w.StepNumber
	s.Type = w.StepType
	s.Action = w.Action
	s.Observation = w.Observation
	s.AgentID = w.AgentID
	if w.Thought != "" {
		s.Content = w.Thought
	} else {
		s.Content = w.Content
	}
	if w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, w.Timestamp)
		if err != nil {
			return err
		}
		s.Timestamp = ts
	}
	return nil
}
