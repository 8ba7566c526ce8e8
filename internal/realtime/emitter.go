package realtime

import (
	"strings"
	"time"

	"prism/internal/logging"
)

// Sender is the delivery target for emitted events. *Client satisfies
// it; tests substitute a recorder.
type Sender interface {
	SendMessage(msg *Message) error
	IsClosed() bool
}

// Emitter coalesces model deltas into websocket frames for one
// generation job. Small deltas are buffered until the threshold is
// reached so a chatty model does not flood the socket; the final flush
// is unconditional so no text is ever lost.
//
// A nil client degrades every send to a no-op: the job still runs and
// persists, the submitter just watches nothing.
type Emitter struct {
	client         Sender
	conversationID string
	threshold      int
	buf            strings.Builder
	started        bool
}

// NewEmitter creates an emitter for one job. threshold is the minimum
// buffered byte count before a progress frame is sent.
func NewEmitter(client Sender, conversationID string, threshold int) *Emitter {
	if threshold <= 0 {
		threshold = 50
	}
	return &Emitter{
		client:         client,
		conversationID: conversationID,
		threshold:      threshold,
	}
}

// Delta adds one streamed fragment, flushing when enough has built up.
func (e *Emitter) Delta(text string) {
	if text == "" {
		return
	}
	e.buf.WriteString(text)
	if e.buf.Len() >= e.threshold {
		e.flush()
	}
}

// Finish flushes any remainder and sends the terminal frame carrying
// the complete response.
func (e *Emitter) Finish(fullContent string) {
	e.flush()
	e.send(&Message{
		Type: EventMessage,
		Data: map[string]any{
			"role":            "assistant",
			"content":         fullContent,
			"done":            true,
			"conversation_id": e.conversationID,
		},
		Timestamp: time.Now(),
	})
}

// Fail sends the terminal frame for a failed job. The text is the
// user-facing error message, already persisted as the assistant turn.
func (e *Emitter) Fail(errText string) {
	e.buf.Reset()
	e.send(&Message{
		Type: EventMessage,
		Data: map[string]any{
			"role":            "assistant",
			"content":         errText,
			"done":            true,
			"error":           true,
			"conversation_id": e.conversationID,
		},
		Timestamp: time.Now(),
	})
}

// ConversationUpdate notifies the client of a metadata change, such as
// a generated title.
func (e *Emitter) ConversationUpdate(id, title string) {
	e.send(&Message{
		Type:      EventConversationUpdate,
		Data:      map[string]any{"id": id, "title": title},
		Timestamp: time.Now(),
	})
}

func (e *Emitter) flush() {
	if e.buf.Len() == 0 {
		return
	}
	chunk := e.buf.String()
	e.buf.Reset()
	data := map[string]any{
		"content":         chunk,
		"conversation_id": e.conversationID,
	}
	// The first frame of a turn tells the client to open a new bubble;
	// later frames append to it.
	if !e.started {
		data["start"] = true
		e.started = true
	}
	e.send(&Message{
		Type:      EventMessageProgress,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// send delivers one frame, dropping it when the client is gone. The
// job's outcome never depends on delivery.
func (e *Emitter) send(msg *Message) {
	if e.client == nil || e.client.IsClosed() {
		return
	}
	if err := e.client.SendMessage(msg); err != nil {
		switch err {
		case ErrClientClosed:
			logging.Debugf("emitter: client closed, dropping %s", msg.Type)
		case ErrClientSendBufferFull:
			logging.Warnf("emitter: send buffer full, dropping %s", msg.Type)
		default:
			logging.Errorf("emitter: send failed: %v", err)
		}
	}
}
