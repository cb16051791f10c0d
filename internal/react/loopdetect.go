package react

import (
	"encoding/json"
	"sort"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// signature is the canonical (tool name, serialized arguments) pair used
// for loop detection, mirroring ToolCallSignature in react_loop.rs.
type signature struct {
	name string
	args string
}

func newSignature(call models.ToolCall) signature {
	return signature{name: call.Name, args: canonicalArgs(call.Arguments)}
}

// canonicalArgs serializes arguments with keys sorted, so the same
// argument set in a different key order still compares equal.
func canonicalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]any, len(args))
	for _, k := range keys {
		ordered[k] = args[k]
	}
	raw, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	return string(raw)
}

// history is a bounded FIFO of size 10 tracking recent tool-call
// signatures within one ReAct execution, per spec.md's loop-detection
// contract.
type history struct {
	entries []signature
}

const historyCapacity = 10

// count returns how many times sig already appears in the history.
func (h *history) count(sig signature) int {
	n := 0
	for _, e := range h.entries {
		if e == sig {
			n++
		}
	}
	return n
}

// push records sig, evicting the oldest entry once the FIFO is full.
func (h *history) push(sig signature) {
	h.entries = append(h.entries, sig)
	if len(h.entries) > historyCapacity {
		h.entries = h.entries[len(h.entries)-historyCapacity:]
	}
}

// loopTripThreshold is the prior-occurrence count that trips the loop
// abort: the third identical call (two prior occurrences already recorded).
const loopTripThreshold = 2
