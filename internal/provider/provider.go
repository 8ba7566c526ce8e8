package provider

import (
	"context"
)

// StreamEventType defines the type of streaming event
type StreamEventType string

const (
	EventTypeText  StreamEventType = "text"
	EventTypeError StreamEventType = "error"
	EventTypeDone  StreamEventType = "done"
)

// StreamEvent represents a streaming response event
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Error error           `json:"error,omitempty"`
}

// Turn is one prior exchange supplied as model context. Role is one of
// "user", "assistant", or "system"; adapters map roles to whatever the
// wire format calls them.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MediaInput is a binary attachment on the current turn.
type MediaInput struct {
	MIMEType string
	Data     []byte
}

// ChatRequest represents a request to a streaming text provider. History
// never carries binary data; images apply to the current turn only.
type ChatRequest struct {
	History     []Turn
	Prompt      string
	Images      []MediaInput
	Model       string // model override, provider default when empty
	MaxTokens   int
	Temperature float64
}

// Generator is a streaming text provider.
type Generator interface {
	// ID returns the provider identifier (e.g., "gemini", "groq")
	ID() string

	// Stream sends a request and returns a channel of streaming events.
	// The channel is closed after a terminal event (done or error).
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}

// Completer produces a full response in one call. Side tasks like
// title generation use this instead of streaming.
type Completer interface {
	Complete(ctx context.Context, req *ChatRequest) (string, error)
}

// MediaFile is one produced artifact, raw bytes plus a file extension
// guessed from the payload's MIME type.
type MediaFile struct {
	Data []byte
	Ext  string
}

// MediaResult is the outcome of a non-streaming media request. Text
// carries any prose the model produced alongside the artifacts.
type MediaResult struct {
	Files []MediaFile
	Text  string
}

// MediaRequest asks for generated or edited media.
type MediaRequest struct {
	Prompt string
	Images []MediaInput // source images for edits, empty for pure generation
	Model  string

	// Video render parameters; zero values use provider defaults.
	DurationSeconds int
	NumberOfVideos  int
	AspectRatio     string
}

// MediaGenerator produces media in a single blocking call. Implementations
// honor ctx cancellation; long-running backends poll under the hood.
type MediaGenerator interface {
	ID() string
	Generate(ctx context.Context, req *MediaRequest) (*MediaResult, error)
}
