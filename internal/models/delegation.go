package models

// DelegationSentinel is an opaque hand-off from the tool dispatcher to the
// delegation engine, carrying the target agent identifier and the task
// string. It never reaches the client; its lifetime is one tool call.
type DelegationSentinel struct {
	TargetAgentID string `json:"target_agent"`
	Task          string `json:"task"`
}
