package react

import "strings"

// reasoningPrompt forces the model to verbalize intent before the action
// call biases it toward a tool, per src/agents/thinking.rs and
// src/agents/react_loop.rs's phase-1 prompt.
const reasoningPrompt = "Before taking action, think step-by-step and reflect:\n" +
	"1. What is the user's overall goal from the conversation history?\n" +
	"2. Review the most recent observations (if any) and summarize key insights or changes they introduce.\n" +
	"3. What specific action should you take next to progress toward the goal? Explain why this action differs from previous ones if applicable.\n" +
	"4. Will this action complete the goal? If yes, end your thought with 'GOAL_COMPLETE'.\n\n" +
	"Provide concise reasoning (2-3 sentences max). Do NOT call tools or suggest actions here - focus on thinking only."

// actionPrompt asks the model to commit to exactly one tool call based on
// the reasoning phase's output.
const actionPrompt = "Based on your reasoning above, execute the next action. " +
	"You MUST call exactly one available tool to make progress toward the goal. " +
	"Do not explain, describe, or add text - just call the tool with the appropriate parameters. " +
	"If your reasoning indicated 'GOAL_COMPLETE', do not call any tools."

const goalCompleteToken = "GOAL_COMPLETE"

// interpolateSystemPrompt performs the single-pass token substitution
// spec.md names: {tools}, {purpose}, and {available_agents}. The last is
// always replaced, with an empty string when the caller supplies no agent
// catalogue. A plain strings.ReplaceAll, not a
// template engine, matching src/agents/prompt_interpolation.rs.
func interpolateSystemPrompt(template, toolsListing, purpose, availableAgents string) string {
	out := strings.ReplaceAll(template, "{tools}", toolsListing)
	out = strings.ReplaceAll(out, "{purpose}", purpose)
	out = strings.ReplaceAll(out, "{available_agents}", availableAgents)
	return out
}
