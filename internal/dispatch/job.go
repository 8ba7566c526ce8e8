package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prism/internal/history"
	"prism/internal/logging"
	"prism/internal/provider"
	"prism/internal/realtime"
)

// persistTimeout bounds the bookkeeping writes that run after a job's
// own context has expired.
const persistTimeout = 10 * time.Second

// runJob executes one generation job to its terminal state. The
// conversation lock is held for the whole lifetime so a thread's
// assistant turns appear in submission order.
func (d *Dispatcher) runJob(conversationID string, client *realtime.Client, req *Request) {
	lock := d.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	var sender realtime.Sender
	if client != nil {
		sender = client
	}
	emitter := realtime.NewEmitter(sender, conversationID, d.cfg.StreamThreshold)

	timeout := d.cfg.TextTimeout
	if req.Mode == ModeVideo {
		timeout = d.cfg.VideoTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var content string
	var err error
	switch req.Mode {
	case ModeImage:
		content, err = d.runImageJob(ctx, req)
	case ModeVideo:
		content, err = d.runVideoJob(ctx, req)
	default:
		content, err = d.runTextJob(ctx, conversationID, req, emitter)
	}

	if err != nil {
		d.finishFailure(conversationID, emitter, err)
		return
	}
	d.finishSuccess(conversationID, req, emitter, content)
}

// finishSuccess delivers the final frame, persists the assistant turn,
// and kicks off side tasks. Delivery and persistence are independent:
// a failed write is logged, never surfaced as a job failure, because
// the user already has the content on screen.
func (d *Dispatcher) finishSuccess(conversationID string, req *Request, emitter *realtime.Emitter, content string) {
	// Bookkeeping runs on its own clock; the job deadline may have just
	// expired even though generation succeeded. Persist before the final
	// frame so a client refetching on "done" sees the turn.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := d.store.AppendMessage(ctx, conversationID, "assistant", content); err != nil {
		logging.Errorf("persist assistant turn for %s failed: %v", conversationID, err)
	}
	if err := d.store.TouchConversation(ctx, conversationID); err != nil {
		logging.Debugf("touch conversation %s: %v", conversationID, err)
	}

	emitter.Finish(content)

	// Side tasks get their own goroutine and error boundary; the
	// conversation lock is released as soon as this job returns, so a
	// slow title or summary call never stalls the next queued job.
	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("side task panic for conversation %s: %v", conversationID, r)
			}
		}()
		d.runSideTasks(conversationID, req, emitter, content)
	}()
}

// finishFailure persists a user-facing error turn and delivers it with
// the error flag set. Exactly one assistant turn lands either way.
func (d *Dispatcher) finishFailure(conversationID string, emitter *realtime.Emitter, err error) {
	kind := provider.Classify(err)
	msg := provider.UserMessage(kind)
	logging.Errorf("job for %s failed (%s): %v", conversationID, kind, err)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if _, perr := d.store.AppendMessage(ctx, conversationID, "assistant", msg); perr != nil {
		logging.Errorf("persist error turn for %s failed: %v", conversationID, perr)
	}

	emitter.Fail(msg)
}

// runTextJob streams a chat completion. The attempt is retried only
// while nothing has been emitted; once the client saw a delta the
// stream is committed and mid-stream errors fail the job.
func (d *Dispatcher) runTextJob(ctx context.Context, conversationID string, req *Request, emitter *realtime.Emitter) (string, error) {
	msgs, err := d.store.ListMessages(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	prepared := history.BuildFromMessages(msgs, req.Text)

	prompt := prepared.Prompt
	if strings.TrimSpace(prompt) == "" && len(req.Images) > 0 {
		prompt = "Describe what you see in this image"
	}
	if req.WebSearch {
		if block := d.webContext(ctx, req.Text); block != "" {
			prompt = block + "\n\n" + prompt
		}
	}

	gen := d.providers.Chat
	if req.Mode == ModeFast {
		gen = d.providers.Fast
	}
	if gen == nil {
		return "", provider.NewError(provider.KindConfig, string(req.Mode), "provider not configured")
	}

	chatReq := &provider.ChatRequest{
		History: prepared.History,
		Prompt:  prompt,
		Images:  req.Images,
	}

	attempts := d.cfg.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		full, emitted, err := d.streamOnce(ctx, gen, chatReq, emitter)
		if err == nil {
			return full, nil
		}
		lastErr = err
		if emitted || !provider.Retryable(provider.Classify(err)) {
			break
		}
		if attempt < attempts {
			logging.Warnf("stream attempt %d/%d for %s failed: %v", attempt, attempts, conversationID, err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.cfg.Retry.Delay):
			}
		}
	}
	return "", lastErr
}

// streamOnce consumes one provider stream to its terminal event.
func (d *Dispatcher) streamOnce(ctx context.Context, gen provider.Generator, req *provider.ChatRequest, emitter *realtime.Emitter) (string, bool, error) {
	events, err := gen.Stream(ctx, req)
	if err != nil {
		return "", false, err
	}

	var sb strings.Builder
	emitted := false
	for ev := range events {
		switch ev.Type {
		case provider.EventTypeText:
			sb.WriteString(ev.Text)
			emitter.Delta(ev.Text)
			emitted = true
		case provider.EventTypeError:
			return sb.String(), emitted, ev.Error
		case provider.EventTypeDone:
			if sb.Len() == 0 {
				return "", emitted, provider.NewError(provider.KindMalformed, gen.ID(), "stream produced no text")
			}
			return sb.String(), emitted, nil
		}
	}
	// Channel closed without a terminal event.
	if sb.Len() == 0 {
		return "", emitted, provider.NewError(provider.KindMalformed, gen.ID(), "stream ended unexpectedly")
	}
	return sb.String(), emitted, nil
}

// runImageJob generates or edits images and returns the assistant turn
// content with inline markers the client renders as <img> tags.
func (d *Dispatcher) runImageJob(ctx context.Context, req *Request) (string, error) {
	if d.providers.Image == nil {
		return "", provider.NewError(provider.KindConfig, "image", "image provider not configured")
	}

	prompt := req.Text
	if strings.TrimSpace(prompt) == "" {
		prompt = "Generate a creative image"
	}

	var result *provider.MediaResult
	err := d.cfg.Retry.Do(ctx, "image generation", func() error {
		var genErr error
		result, genErr = d.providers.Image.Generate(ctx, &provider.MediaRequest{
			Prompt: prompt,
			Images: req.Images,
		})
		return genErr
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if result.Text != "" {
		sb.WriteString(result.Text)
	}
	saved := 0
	for _, file := range result.Files {
		url, err := d.files.SaveGenerated("image", file)
		if err != nil {
			logging.Errorf("save generated image: %v", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[GENERATED_IMAGE:%s]", url)
		saved++
	}
	if saved == 0 {
		return "", provider.NewError(provider.KindTransient, "image", "no generated image could be saved")
	}
	return sb.String(), nil
}

// runVideoJob renders a video, saves it, and records it in the user's
// gallery.
func (d *Dispatcher) runVideoJob(ctx context.Context, req *Request) (string, error) {
	if d.providers.Video == nil {
		return "", provider.NewError(provider.KindConfig, "video", "video provider not configured")
	}

	result, err := d.providers.Video.Generate(ctx, &provider.MediaRequest{
		Prompt:          req.Text,
		DurationSeconds: req.Video.DurationSeconds,
		NumberOfVideos:  req.Video.NumberOfVideos,
		AspectRatio:     req.Video.AspectRatio,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	saved := 0
	for _, file := range result.Files {
		url, err := d.files.SaveGenerated("video", file)
		if err != nil {
			logging.Errorf("save generated video: %v", err)
			continue
		}
		if _, err := d.store.SaveGeneratedVideo(ctx, req.UserID, req.Text, url); err != nil {
			logging.Errorf("record generated video: %v", err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[GENERATED_VIDEO:%s]", url)
		saved++
	}
	if saved == 0 {
		return "", provider.NewError(provider.KindTransient, "video", "no rendered video could be saved")
	}
	return sb.String(), nil
}

// webContext fetches search results for the prompt. Search failures
// degrade to an unaugmented prompt rather than failing the job.
func (d *Dispatcher) webContext(ctx context.Context, query string) string {
	if d.providers.Search == nil || !d.providers.Search.Enabled() {
		return ""
	}
	resp, err := d.providers.Search.Search(ctx, query)
	if err != nil {
		logging.Warnf("web search failed, continuing without: %v", err)
		return ""
	}
	return resp.FormatContext()
}
