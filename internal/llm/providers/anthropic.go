// Package providers implements concrete internal/llm.Adapter backends.
//
// AnthropicAdapter is the only adapter spec.md requires: a thin wrapper
// around the official Anthropic SDK that performs one blocking completion
// call per internal/llm.Adapter.Complete invocation, with retries for
// transient transport errors. It is adapted from the teacher's streaming
// AnthropicProvider (internal/agent/providers/anthropic.go) down to the
// non-streaming contract internal/llm.Adapter requires, using the same
// message/tool conversion idiom and the same retryable-error classification.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
	"github.com/bluestarburst/cf-ai-local-tools/internal/retry"
)

const defaultModel = "claude-sonnet-4-20250514"
const defaultMaxTokens = 4096

// AnthropicConfig configures an AnthropicAdapter.
type AnthropicConfig struct {
	// APIToken is forwarded as "Authorization: Bearer <token>" rather than
	// the SDK's native x-api-key header, because the target endpoint is a
	// Cloudflare Workers AI gateway proxying Anthropic, not api.anthropic.com
	// directly.
	APIToken string
	// BaseURL overrides the SDK's default endpoint.
	BaseURL string
	// DefaultModel is used when a Request does not specify one.
	DefaultModel string
	// MaxRetries bounds retry attempts for transient transport errors.
	MaxRetries int
	// RetryDelay is the base delay for exponential backoff between retries.
	RetryDelay time.Duration
}

// AnthropicAdapter implements internal/llm.Adapter against Claude models.
type AnthropicAdapter struct {
	client       anthropic.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// NewAnthropicAdapter constructs an adapter from cfg. BaseURL and APIToken
// may both be empty (the SDK then falls back to its own defaults and no
// auth header is added).
func NewAnthropicAdapter(cfg AnthropicConfig) *AnthropicAdapter {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	var opts []option.RequestOption
	if strings.TrimSpace(cfg.APIToken) != "" {
		opts = append(opts, option.WithHeader("Authorization", "Bearer "+cfg.APIToken))
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicAdapter{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Complete performs one blocking Messages.New call, retrying transient
// transport failures with exponential backoff. A non-transient error, or the
// last attempt's error once retries are exhausted, is returned wrapped with
// an "anthropic completion failed" prefix.
func (a *AnthropicAdapter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("build anthropic request: %w", err)
	}

	start := time.Now()
	var message *anthropic.Message
	var lastErr error
	for attempt := 1; attempt <= a.maxRetries+1; attempt++ {
		message, lastErr = a.client.Messages.New(ctx, params)
		if lastErr == nil {
			break
		}
		if isPermanentError(lastErr) {
			lastErr = retry.Permanent(lastErr)
			break
		}
		if !isRetryableError(lastErr) || attempt > a.maxRetries {
			return nil, fmt.Errorf("anthropic completion failed: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry.Backoff(attempt, a.retryDelay, 30*time.Second, 2.0)):
		}
	}
	if lastErr != nil {
		if retry.IsPermanent(lastErr) {
			return nil, fmt.Errorf("anthropic completion failed (not retrying): %w", errors.Unwrap(lastErr))
		}
		return nil, fmt.Errorf("anthropic completion failed: %w", lastErr)
	}

	return convertResponse(message, start), nil
}

func (a *AnthropicAdapter) buildParams(req llm.Request) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = a.defaultModel
	}

	system, messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}
	if len(messages) == 0 {
		return anthropic.MessageNewParams{}, errors.New("no messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: int64(defaultMaxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// convertMessages separates the leading system message (if any) from the
// rest of the conversation, mirroring the teacher's convertMessages: system
// role is carried in params.System, not as a message in the array.
func convertMessages(msgs []llm.Message) (string, []anthropic.MessageParam, error) {
	var system strings.Builder
	var out []anthropic.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)
		case models.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return system.String(), out, nil
}

// convertTools converts the LLM-schema tool list into Anthropic's tool
// union params, the way the teacher's convertTools does: parse the JSON
// parameters map into a ToolInputSchemaParam, then attach name/description.
func convertTools(tools []llm.Tool) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for tool %s: %w", t.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("invalid schema for tool %s: %w", t.Name, err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool definition for %s", t.Name)
		}
		toolParam.OfTool.Description = anthropic.String(t.Description)
		out = append(out, toolParam)
	}
	return out, nil
}

// convertResponse flattens the message's content blocks into the single
// text response plus any tool calls the action phase needs.
func convertResponse(message *anthropic.Message, start time.Time) *llm.Response {
	resp := &llm.Response{
		Model:       string(message.Model),
		ElapsedTime: time.Since(start),
		Usage: &llm.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(variant.Input, &args)
			resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}
	resp.Response = text.String()
	return resp
}

// isRetryableError classifies transient transport/server errors, the same
// substring-based classification the teacher's isRetryableError applies.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	retryableSubstrings := []string{
		"rate_limit", "rate limit", "429", "too many requests",
		"500", "502", "503", "504",
		"timeout", "deadline exceeded",
		"connection reset", "connection refused", "no such host", "eof",
	}
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isPermanentError classifies errors retrying can never fix: bad credentials
// or a malformed request. These short-circuit the retry loop immediately
// via retry.Permanent, rather than burning the remaining attempt budget.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	permanentSubstrings := []string{
		"401", "unauthorized", "authentication_error", "invalid_api_key",
		"403", "forbidden", "permission",
		"invalid_request_error", "400 bad request",
	}
	for _, s := range permanentSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
