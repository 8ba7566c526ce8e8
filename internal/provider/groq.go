package provider

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements fast text inference through Groq's
// OpenAI-compatible API using the official SDK.
type GroqProvider struct {
	client openai.Client
	model  string
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(apiKey, model string) *GroqProvider {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(groqBaseURL),
	)
	return &GroqProvider{
		client: client,
		model:  model,
	}
}

// ID returns the provider identifier
func (p *GroqProvider) ID() string {
	return "groq"
}

// Stream sends a request and returns streaming events
func (p *GroqProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(req))

	events := make(chan StreamEvent, 100)
	go p.handleStream(stream, events)
	return events, nil
}

// Complete runs a one-shot request and returns the full response text.
func (p *GroqProvider) Complete(ctx context.Context, req *ChatRequest) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		if LooksBlocked(err.Error()) {
			return "", NewError(KindBlocked, "groq", err.Error())
		}
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", NewError(KindMalformed, "groq", "model returned no text")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *GroqProvider) buildParams(req *ChatRequest) openai.ChatCompletionNewParams {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	prompt := req.Prompt
	if len(req.Images) > 0 {
		// Groq models are text-only, so attachments become a note the
		// model can acknowledge.
		prompt += "\n[Note: the user also attached images, which this model cannot process directly]"
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	} else {
		params.MaxCompletionTokens = openai.Int(2048)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	} else {
		params.Temperature = openai.Float(0.7)
	}
	return params
}

// handleStream processes the streaming response
func (p *GroqProvider) handleStream(stream *ssestream.Stream[openai.ChatCompletionChunk], events chan<- StreamEvent) {
	defer close(events)

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			events <- StreamEvent{
				Type: EventTypeText,
				Text: chunk.Choices[0].Delta.Content,
			}
		}
	}

	if err := stream.Err(); err != nil {
		if LooksBlocked(err.Error()) {
			err = NewError(KindBlocked, "groq", err.Error())
		}
		events <- StreamEvent{Type: EventTypeError, Error: err}
		return
	}

	events <- StreamEvent{Type: EventTypeDone}
}
