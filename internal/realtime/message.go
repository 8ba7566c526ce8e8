package realtime

import "time"

// Message is the websocket envelope exchanged with browser clients.
type Message struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Event names pushed to clients. The web client listens for these.
const (
	EventMessageProgress    = "message_progress"
	EventMessage            = "message"
	EventConversationUpdate = "conversation_update"
)
