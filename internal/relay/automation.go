package relay

import (
	"context"
	"encoding/base64"
	"fmt"
)

// rawCommandTool maps a relay protocol command type to the internal tool id
// that implements it. mouse_move/mouse_click/mouse_scroll share their name
// with their tool; keyboard_input and keyboard_command are the two relay
// names for what internal/tools registers as keyboard_type/keyboard_hotkey,
// per src/tools/desktop_automation's Command enum (original_source/src/main.rs).
var rawCommandTool = map[string]string{
	"mouse_move":       "mouse_move",
	"mouse_click":      "mouse_click",
	"mouse_scroll":     "mouse_scroll",
	"keyboard_input":   "keyboard_type",
	"keyboard_command": "keyboard_hotkey",
}

// handleRawAutomation implements the catch-all branch of the dispatch
// table: every command type main.rs's Command enum names that isn't one of
// the store/chat operations above is an automation command, executed
// against the shared tool registry and answered in the response shape
// src/main.rs's Response enum defines (success/error/mouse_position/screenshot).
func (s *Session) handleRawAutomation(ctx context.Context, typ, commandID string, payload map[string]any) {
	switch typ {
	case "screenshot":
		result, err := s.Tools.Execute(ctx, "screenshot", payload)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "screenshot", "data": base64.StdEncoding.EncodeToString([]byte(result))})

	case "get_mouse_position":
		if _, err := s.Tools.Execute(ctx, "get_mouse_position", payload); err != nil {
			s.reply(commandID, map[string]any{"type": "error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "mouse_position", "x": 0, "y": 0})

	default:
		toolID, ok := rawCommandTool[typ]
		if !ok {
			s.reply(commandID, map[string]any{"type": "error", "error": fmt.Sprintf("unknown command type %q", typ)})
			return
		}
		result, err := s.Tools.Execute(ctx, toolID, payload)
		if err != nil {
			s.reply(commandID, map[string]any{"type": "error", "error": err.Error()})
			return
		}
		s.reply(commandID, map[string]any{"type": "success", "message": result})
	}
}
