package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// RegisterBuiltins wires the opaque desktop-automation, web-search, and
// url-fetch tools spec.md §1 names as out-of-scope internals into reg.
// Their mechanics are intentionally shallow stubs: spec.md treats them as
// opaque functions from (name, arguments) to a result string, and the
// actual device automation they describe (src/tools/computer_automation,
// src/tools/desktop_automation in original_source/) has no Go counterpart
// anywhere in the example pack to ground a real implementation on.
func RegisterBuiltins(reg *Registry) error {
	for _, t := range desktopAutomationTools() {
		if err := reg.Register(t.def, t.exec); err != nil {
			return err
		}
	}

	search := newRateLimitedFetcher(rate.NewLimiter(rate.Every(time.Minute/30), 1), 15*time.Second)
	if err := reg.Register(webSearchDefinition(), search.search); err != nil {
		return err
	}
	fetch := newRateLimitedFetcher(rate.NewLimiter(rate.Every(time.Minute/60), 2), 15*time.Second)
	if err := reg.Register(urlFetchDefinition(), fetch.fetch); err != nil {
		return err
	}
	return nil
}

type registration struct {
	def  models.ToolDefinition
	exec Executor
}

func desktopAutomationTools() []registration {
	return []registration{
		{mouseMoveDefinition(), stubExecutor("mouse_move", func(a map[string]any) string {
			return fmt.Sprintf("Moved mouse to (%v, %v)", a["x"], a["y"])
		})},
		{mouseClickDefinition(), stubExecutor("mouse_click", func(a map[string]any) string {
			return fmt.Sprintf("Clicked %v button", a["button"])
		})},
		{mouseScrollDefinition(), stubExecutor("mouse_scroll", func(a map[string]any) string {
			return fmt.Sprintf("Scrolled %v with intensity %v", a["direction"], a["intensity"])
		})},
		{keyboardTypeDefinition(), stubExecutor("keyboard_type", func(a map[string]any) string {
			return fmt.Sprintf("Typed: %v", a["text"])
		})},
		{keyboardHotkeyDefinition(), stubExecutor("keyboard_hotkey", func(a map[string]any) string {
			return fmt.Sprintf("Executed keyboard command: %v", a["command"])
		})},
		{screenshotDefinition(), stubExecutor("screenshot", func(map[string]any) string {
			return "Screenshot captured"
		})},
		{getMousePositionDefinition(), stubExecutor("get_mouse_position", func(map[string]any) string {
			return "Mouse position: (0, 0)"
		})},
	}
}

// stubExecutor wraps a pure formatting function as an Executor, matching
// the (name, arguments) -> result_string contract without any real I/O.
func stubExecutor(name string, format func(map[string]any) string) Executor {
	return func(_ context.Context, args map[string]any) (string, error) {
		return format(args), nil
	}
}

func mouseMoveDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "mouse_move", Name: "Mouse Move", Category: "mouse",
		Description: "Move the mouse cursor to the given coordinates",
		Parameters: []models.ToolParameter{
			{Name: "x", Type: models.ParamNumber, Description: "X coordinate", Required: true},
			{Name: "y", Type: models.ParamNumber, Description: "Y coordinate", Required: true},
			{Name: "duration", Type: models.ParamNumber, Description: "Seconds to animate the move", Default: 1.0},
		},
	}
}

func mouseClickDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "mouse_click", Name: "Mouse Click", Category: "mouse",
		Description: "Click a mouse button at the current cursor position",
		Parameters: []models.ToolParameter{
			{Name: "button", Type: models.ParamString, Description: "Which button to click", Required: true,
				Enum: []string{"left", "right", "middle"}},
		},
	}
}

func mouseScrollDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "mouse_scroll", Name: "Mouse Scroll", Category: "mouse",
		Description: "Scroll the mouse wheel",
		Parameters: []models.ToolParameter{
			{Name: "direction", Type: models.ParamString, Description: "Scroll direction", Required: true,
				Enum: []string{"up", "down", "left", "right"}},
			{Name: "intensity", Type: models.ParamInteger, Description: "Scroll intensity", Default: 3},
		},
	}
}

func keyboardTypeDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "keyboard_type", Name: "Keyboard Type", Category: "keyboard",
		Description: "Type literal text via the keyboard",
		Parameters: []models.ToolParameter{
			{Name: "text", Type: models.ParamString, Description: "Text to type", Required: true},
		},
	}
}

func keyboardHotkeyDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "keyboard_hotkey", Name: "Keyboard Hotkey", Category: "keyboard",
		Description: "Execute a named keyboard command (e.g. copy, paste, enter)",
		Parameters: []models.ToolParameter{
			{Name: "command", Type: models.ParamString, Description: "Named keyboard command", Required: true},
		},
	}
}

func screenshotDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "screenshot", Name: "Screenshot", Category: "screen",
		Description: "Capture the current screen contents",
		Parameters:  []models.ToolParameter{},
	}
}

func getMousePositionDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "get_mouse_position", Name: "Get Mouse Position", Category: "mouse",
		Description: "Read the current mouse cursor position",
		Parameters:  []models.ToolParameter{},
	}
}

func webSearchDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "web_search", Name: "Web Search", Category: "research",
		Description: "Search the web and return a summary of results",
		Parameters: []models.ToolParameter{
			{Name: "query", Type: models.ParamString, Description: "Search query", Required: true},
		},
	}
}

func urlFetchDefinition() models.ToolDefinition {
	return models.ToolDefinition{
		ID: "url_fetch", Name: "URL Fetch", Category: "research",
		Description: "Fetch a URL's contents",
		Parameters: []models.ToolParameter{
			{Name: "url", Type: models.ParamString, Description: "URL to fetch", Required: true},
		},
	}
}

// rateLimitedFetcher backs web_search and url_fetch: both perform outbound
// HTTP, both need a per-tool rate ceiling and the 15-second deadline
// spec.md §5 names for the search tool (applied here to both, since both
// are network calls of the same shape).
type rateLimitedFetcher struct {
	limiter *rate.Limiter
	timeout time.Duration
	client  *http.Client
}

func newRateLimitedFetcher(limiter *rate.Limiter, timeout time.Duration) *rateLimitedFetcher {
	return &rateLimitedFetcher{limiter: limiter, timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (f *rateLimitedFetcher) search(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("web_search requires a query")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("web_search rate limited: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	endpoint := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("web_search failed: %w", err)
	}
	if len(body) > 2000 {
		body = body[:2000]
	}
	return fmt.Sprintf("Search results for %q:\n%s", query, body), nil
}

func (f *rateLimitedFetcher) fetch(ctx context.Context, args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	if url == "" {
		return "", fmt.Errorf("url_fetch requires a url")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("url_fetch rate limited: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("url_fetch failed: %w", err)
	}
	if len(body) > 4000 {
		body = body[:4000]
	}
	return body, nil
}

func (f *rateLimitedFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
