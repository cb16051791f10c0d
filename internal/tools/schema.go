package tools

import (
	"strings"

	"github.com/bluestarburst/cf-ai-local-tools/internal/llm"
	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// ParameterSchema builds the JSON-schema object for one tool's parameter
// list: a type:"object" schema enumerating each parameter's type,
// description, and enum, plus a required list — the same shape
// convert_tools_to_cf_schema built in the Rust predecessor, expressed here
// as a plain map for both jsonschema.Compile and the LLM adapter's Tool.Parameters.
func ParameterSchema(params []models.ToolParameter) map[string]any {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, v := range p.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required != nil {
		schema["required"] = required
	} else {
		schema["required"] = []string{}
	}
	return schema
}

// BuildLLMTools converts tool definitions into the LLM-schema form the
// action-phase call attaches: identifier as name, description carried
// through, and the full parameter schema.
func BuildLLMTools(defs []models.ToolDefinition) []llm.Tool {
	out := make([]llm.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.Tool{
			Name:        d.ID,
			Description: d.Description,
			Parameters:  ParameterSchema(d.Parameters),
		})
	}
	return out
}

// ToolsListing builds the "{tools}" substitution string: one line per tool
// of the form "- <name> (<id>): <description>".
func ToolsListing(defs []models.ToolDefinition) string {
	lines := make([]string, 0, len(defs))
	for _, d := range defs {
		lines = append(lines, "- "+d.Name+" ("+d.ID+"): "+d.Description)
	}
	return strings.Join(lines, "\n")
}
