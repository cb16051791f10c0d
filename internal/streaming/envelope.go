package streaming

import (
	"encoding/json"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

type envelope struct {
	Type string               `json:"type"`
	Step models.ExecutionStep `json:"step"`
}

// EncodeEnvelope wraps one step in the execution_step frame the relay
// writer task sends over the socket.
func EncodeEnvelope(step models.ExecutionStep) ([]byte, error) {
	return json.Marshal(envelope{Type: "execution_step", Step: step})
}
