// Package tools holds the static tool table the ReAct executor and the
// delegation engine dispatch against: definitions, an argument-schema
// validator, the delegation sentinel, and the opaque builtin executors
// spec.md treats as out-of-scope internals.
//
// Grounded on the Rust predecessor's src/tools/registry.rs
// (DefaultToolRegistry: register/get/list by id, rejecting duplicates) and
// on the teacher's internal/gateway/ws_schema.go for the
// santhosh-tekuri/jsonschema/v5 compile-then-validate idiom.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// Executor is the opaque (name, arguments) -> result contract every tool
// implements. Its internal mechanics are out of scope; only the shape of
// the contract matters to the dispatcher.
type Executor func(ctx context.Context, args map[string]any) (string, error)

type entry struct {
	def    models.ToolDefinition
	exec   Executor
	schema *jsonschema.Schema
}

// Registry is a thread-safe table of tool definitions plus their opaque
// executors, analogous to the Rust DefaultToolRegistry but returning plain
// values (Go has no dyn_clone requirement: models.ToolDefinition is a value
// type, trivially copyable).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool definition and its executor, rejecting a duplicate
// identifier and compiling its parameter schema eagerly so a malformed
// definition fails at startup rather than at first dispatch.
func (r *Registry) Register(def models.ToolDefinition, exec Executor) error {
	if def.ID == "" {
		return fmt.Errorf("tool definition requires an id")
	}
	if exec == nil {
		return fmt.Errorf("tool %q requires an executor", def.ID)
	}

	schema, err := compileSchema(def)
	if err != nil {
		return fmt.Errorf("compile schema for tool %q: %w", def.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.ID]; exists {
		return fmt.Errorf("tool %q already registered", def.ID)
	}
	r.entries[def.ID] = &entry{def: def, exec: exec, schema: schema}
	return nil
}

func compileSchema(def models.ToolDefinition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(ParameterSchema(def.Parameters))
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString(def.ID+"#params", string(raw))
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (models.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return models.ToolDefinition{}, false
	}
	return e.def, true
}

// List returns every registered tool definition, sorted by id for stable
// output (get_tools / presets responses).
func (r *Registry) List() []models.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolDefinition, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Available filters the registry's definitions down to those whose
// identifier appears in ids, preserving the registry's stable order. Used
// by the ReAct executor's preprocessing step (i).
func (r *Registry) Available(ids []string) []models.ToolDefinition {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.ToolDefinition
	for _, def := range r.List() {
		if _, ok := want[def.ID]; ok {
			out = append(out, def)
		}
	}
	return out
}

// AvailableSet returns the set of every registered tool identifier, for use
// with store.ValidateTools.
func (r *Registry) AvailableSet() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.entries))
	for id := range r.entries {
		out[id] = struct{}{}
	}
	return out
}

// Execute validates args against the tool's parameter schema and, if valid,
// invokes its executor. A schema violation is returned as an error without
// invoking the executor, the same as any other tool-execution failure from
// the dispatcher's perspective (spec.md §7's "Tool execution" error kind).
func (r *Registry) Execute(ctx context.Context, id string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown tool %q", id)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := e.schema.Validate(toValidatable(args)); err != nil {
		return "", fmt.Errorf("invalid arguments for tool %q: %w", id, err)
	}

	return e.exec(ctx, args)
}

// toValidatable round-trips args through JSON so jsonschema sees the same
// representation (numbers as float64, etc.) it would see from a decoded
// wire payload, regardless of how the caller built the map.
func toValidatable(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return args
	}
	return v
}
