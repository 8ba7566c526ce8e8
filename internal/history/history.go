package history

import (
	"prism/internal/db"
	"prism/internal/provider"
)

// Prepared is a provider-ready view of a conversation: prior turns as
// context, with the current user prompt split out so adapters can attach
// binary parts to it.
type Prepared struct {
	History []provider.Turn
	Prompt  string
}

// FromMessages converts stored rows into provider turns, preserving
// order. Binary attachments are never stored, so this is text-only by
// construction.
func FromMessages(msgs []db.Message) []provider.Turn {
	out := make([]provider.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, provider.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

// Build assembles provider context from the stored thread. The thread
// already ends with the just-saved user turn; that turn is excluded from
// history and carried separately, otherwise the model sees the question
// twice.
func Build(stored []provider.Turn, prompt string) Prepared {
	hist := stored
	if n := len(hist); n > 0 && hist[n-1].Role == "user" && hist[n-1].Content == prompt {
		hist = hist[:n-1]
	}
	return Prepared{History: hist, Prompt: prompt}
}

// BuildFromMessages is Build over raw store rows.
func BuildFromMessages(msgs []db.Message, prompt string) Prepared {
	return Build(FromMessages(msgs), prompt)
}
