package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"prism/internal/db"
	"prism/internal/logging"
	"prism/internal/provider"
	"prism/internal/realtime"
	"prism/internal/uploads"
)

// SentinelTitle marks a conversation that has not been titled yet.
const SentinelTitle = "New Conversation"

// Mode selects the generation path for a job.
type Mode string

const (
	ModeChat  Mode = "gemini" // multimodal chat, the default
	ModeFast  Mode = "groq"   // fast text inference
	ModeImage Mode = "image"  // image generation, or editing when images attach
	ModeVideo Mode = "video"  // long-running video render
)

// ResolveMode maps the client's model field to a generation mode.
// Unknown values fall back to the default chat path.
func ResolveMode(model string) Mode {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case "groq":
		return ModeFast
	case "image", "image-generator", "gemini-flash":
		return ModeImage
	case "video", "video-generator", "veo":
		return ModeVideo
	default:
		return ModeChat
	}
}

// Providers bundles the generation backends a dispatcher drives.
type Providers struct {
	Chat   provider.Generator      // primary multimodal chat
	Fast   provider.Generator      // fast text inference
	Image  provider.MediaGenerator // image generation and editing
	Video  provider.MediaGenerator // video rendering
	Titler provider.Completer      // one-shot completions for side tasks
	Search *provider.SearchClient  // optional web augmentation
}

// Config tunes job behavior.
type Config struct {
	StreamThreshold  int
	TextTimeout      time.Duration
	VideoTimeout     time.Duration
	SummaryThreshold int
	Retry            provider.RetryPolicy
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		StreamThreshold:  50,
		TextTimeout:      2 * time.Minute,
		VideoTimeout:     5 * time.Minute,
		SummaryThreshold: 10,
		Retry:            provider.DefaultRetryPolicy(),
	}
}

// VideoOptions carries the render parameters a video submission may
// set. Zero values defer to provider defaults.
type VideoOptions struct {
	DurationSeconds int
	NumberOfVideos  int
	AspectRatio     string
}

// Request is one accepted chat submission.
type Request struct {
	ConversationID string
	UserID         string
	ChannelID      string
	Text           string
	Images         []provider.MediaInput
	Mode           Mode
	WebSearch      bool
	Video          VideoOptions
}

// Dispatcher validates submissions, persists the user turn in arrival
// order, and runs generation jobs in the background. Jobs for the same
// conversation are serialized; a conversation's next job starts only
// after the previous one reaches a terminal state.
type Dispatcher struct {
	store     *db.Store
	hub       *realtime.Hub
	files     *uploads.Store
	providers Providers
	cfg       Config

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	jobs sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store *db.Store, hub *realtime.Hub, files *uploads.Store, providers Providers, cfg Config) *Dispatcher {
	if cfg.StreamThreshold <= 0 {
		cfg = DefaultConfig()
	}
	return &Dispatcher{
		store:     store,
		hub:       hub,
		files:     files,
		providers: providers,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

var (
	ErrEmptySubmission = errors.New("message text or image required")

	// ErrConversationNotFound is returned for a submission naming a
	// thread the caller does not own. Foreign threads read the same as
	// missing ones.
	ErrConversationNotFound = errors.New("conversation not found")
)

// Dispatch accepts a submission. The user turn is persisted before this
// returns, so turns land in HTTP arrival order; the generation job runs
// asynchronously. Returns the conversation id, freshly created when the
// submission did not name one.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" && len(req.Images) == 0 {
		return "", ErrEmptySubmission
	}

	conversationID := req.ConversationID
	if conversationID != "" {
		conv, err := d.store.GetConversation(ctx, conversationID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			// Stale client id: fall through and start a fresh thread.
			conversationID = ""
		case err != nil:
			return "", err
		case conv.UserID != req.UserID:
			return "", ErrConversationNotFound
		}
	}
	if conversationID == "" {
		conv, err := d.store.CreateConversation(ctx, req.UserID, SentinelTitle, string(req.Mode))
		if err != nil {
			return "", err
		}
		conversationID = conv.ID
	}

	if strings.TrimSpace(req.Text) != "" {
		if _, err := d.store.AppendMessage(ctx, conversationID, "user", req.Text); err != nil {
			return "", err
		}
	}

	client := d.resolveClient(req)

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("job panic for conversation %s: %v", conversationID, r)
			}
		}()
		d.runJob(conversationID, client, req)
	}()

	return conversationID, nil
}

// resolveClient finds the live channel to stream to. Delivery binds to
// the channel id captured at submission; anything looser could route
// output to a different session sharing the same identity, so without
// one the job runs persist-only.
func (d *Dispatcher) resolveClient(req *Request) *realtime.Client {
	if d.hub == nil || req.ChannelID == "" {
		return nil
	}
	return d.hub.Get(req.ChannelID)
}

// Wait blocks until all in-flight jobs and their side tasks finish.
// Used during shutdown.
func (d *Dispatcher) Wait() {
	d.jobs.Wait()
}

// lockFor returns the serialization mutex for a conversation. Locks are
// kept for the process lifetime; the map grows with distinct
// conversations touched, which is bounded in practice.
func (d *Dispatcher) lockFor(conversationID string) *sync.Mutex {
	d.lockMu.Lock()
	defer d.lockMu.Unlock()
	l, ok := d.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[conversationID] = l
	}
	return l
}
