package ws

import "encoding/json"

// MessageType constants for the editor event stream.
const (
	// Server -> Client
	TypeCurriculumUpdate = "curriculum_update"
	TypePong             = "pong"
	TypeError            = "error"

	// Client -> Server
	TypePing = "ping"
)

// Message wraps every WebSocket payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CurriculumUpdatePayload announces that one cache level was recomputed;
// connected consoles re-read the snapshot endpoint on receipt.
type CurriculumUpdatePayload struct {
	Level string `json:"level"`
}
