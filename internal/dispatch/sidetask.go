package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prism/internal/logging"
	"prism/internal/provider"
	"prism/internal/realtime"
)

const (
	sideTaskTimeout = 30 * time.Second
	maxTitleLength  = 200
)

// SummaryPrefix marks system turns that hold a rolling synopsis of the
// thread. The prefix is how later threshold checks find the last one.
const SummaryPrefix = "[SUMMARY] "

// runSideTasks handles the follow-up work that rides on a successful
// generation: naming untitled conversations and summarizing long
// threads. Failures here are logged and never surfaced to the user; the
// response has already been delivered.
func (d *Dispatcher) runSideTasks(conversationID string, req *Request, emitter *realtime.Emitter, content string) {
	if d.providers.Titler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sideTaskTimeout)
	defer cancel()

	d.maybeGenerateTitle(ctx, conversationID, req, emitter, content)
	d.maybeSummarize(ctx, conversationID)
}

func (d *Dispatcher) maybeGenerateTitle(ctx context.Context, conversationID string, req *Request, emitter *realtime.Emitter, content string) {
	if req.Text == "" {
		return
	}
	conv, err := d.store.GetConversation(ctx, conversationID)
	if err != nil {
		logging.Debugf("title check for %s: %v", conversationID, err)
		return
	}
	if conv.Title != SentinelTitle {
		return
	}

	prompt := fmt.Sprintf(
		"Generate a short, descriptive title (3-6 words) for a conversation that starts with this message. Reply with the title only, no quotes or punctuation around it.\n\nMessage: %s",
		truncateForPrompt(req.Text, 500),
	)
	raw, err := d.providers.Titler.Complete(ctx, &provider.ChatRequest{Prompt: prompt})
	if err != nil {
		logging.Warnf("title generation for %s failed: %v", conversationID, err)
		return
	}
	title := cleanTitle(raw)
	if title == "" {
		return
	}

	if err := d.store.UpdateConversationTitle(ctx, conversationID, title); err != nil {
		logging.Warnf("save title for %s: %v", conversationID, err)
		return
	}
	emitter.ConversationUpdate(conversationID, title)
}

// maybeSummarize stores a rolling synopsis once enough new turns have
// accumulated since the last one. The summary lands as a system turn in
// the thread itself, so history rebuilds carry it to the model without
// any separate storage.
func (d *Dispatcher) maybeSummarize(ctx context.Context, conversationID string) {
	if d.cfg.SummaryThreshold <= 0 {
		return
	}
	count, err := d.store.CountMessagesSinceSummary(ctx, conversationID, SummaryPrefix)
	if err != nil {
		logging.Debugf("message count for %s: %v", conversationID, err)
		return
	}
	if count < d.cfg.SummaryThreshold {
		return
	}

	msgs, err := d.store.ListMessages(ctx, conversationID)
	if err != nil {
		logging.Warnf("load thread %s for summary: %v", conversationID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Below is a conversation between a user and an AI assistant. Write a concise summary (200 words at most) capturing the key points and essential context. Preserve names, decisions, and any facts the participants would expect to be remembered.\n\n")
	for _, m := range msgs {
		// Earlier summaries are already context the model produced.
		if m.Role == "system" && strings.HasPrefix(m.Content, SummaryPrefix) {
			continue
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(truncateForPrompt(m.Content, 1000))
		sb.WriteString("\n")
	}

	summary, err := d.providers.Titler.Complete(ctx, &provider.ChatRequest{Prompt: sb.String()})
	if err != nil {
		logging.Warnf("summarize %s failed: %v", conversationID, err)
		return
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}

	if _, err := d.store.AppendMessage(ctx, conversationID, "system", SummaryPrefix+summary); err != nil {
		logging.Warnf("save summary for %s: %v", conversationID, err)
	}
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	return title
}

func truncateForPrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
