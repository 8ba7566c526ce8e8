package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"prism/internal/logging"
)

// GeminiProvider streams chat completions through the official Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider. Model is the default and
// can be overridden per request.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, NewError(KindAuth, "gemini", "google api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() string {
	return "gemini"
}

// Close releases the underlying SDK client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Stream sends a request and returns streaming events
func (p *GeminiProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	model := p.configuredModel(req)

	cs := model.StartChat()
	cs.History = geminiHistory(req.History)

	parts := currentTurnParts(req)
	if len(parts) == 0 {
		return nil, NewError(KindMalformed, "gemini", "empty prompt")
	}

	iter := cs.SendMessageStream(ctx, parts...)

	events := make(chan StreamEvent, 100)
	go p.handleStream(iter, events)
	return events, nil
}

// Complete runs a one-shot request and returns the full response text.
// Used by the title and summary side tasks.
func (p *GeminiProvider) Complete(ctx context.Context, req *ChatRequest) (string, error) {
	model := p.configuredModel(req)

	parts := currentTurnParts(req)
	if len(parts) == 0 {
		return "", NewError(KindMalformed, "gemini", "empty prompt")
	}
	if len(req.History) > 0 {
		cs := model.StartChat()
		cs.History = geminiHistory(req.History)
		resp, err := cs.SendMessage(ctx, parts...)
		if err != nil {
			return "", wrapGeminiError(err)
		}
		return responseText(resp)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", wrapGeminiError(err)
	}
	return responseText(resp)
}

func (p *GeminiProvider) configuredModel(req *ChatRequest) *genai.GenerativeModel {
	name := p.model
	if req.Model != "" {
		name = req.Model
	}

	model := p.client.GenerativeModel(name)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	} else {
		model.SetTemperature(0.9)
	}
	model.SetTopP(1)
	model.SetTopK(32)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	} else {
		model.SetMaxOutputTokens(2048)
	}
	model.SafetySettings = defaultSafetySettings()
	return model
}

func (p *GeminiProvider) handleStream(iter *genai.GenerateContentResponseIterator, events chan<- StreamEvent) {
	defer close(events)

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			events <- StreamEvent{Type: EventTypeDone}
			return
		}
		if err != nil {
			events <- StreamEvent{Type: EventTypeError, Error: wrapGeminiError(err)}
			return
		}

		if blocked, reason := blockedResponse(resp); blocked {
			events <- StreamEvent{
				Type:  EventTypeError,
				Error: NewError(KindBlocked, "gemini", fmt.Sprintf("response blocked: %s", reason)),
			}
			return
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					events <- StreamEvent{Type: EventTypeText, Text: string(text)}
				}
			}
		}
	}
}

// geminiHistory converts prior turns to the SDK's content format.
// Gemini calls the assistant role "model" and has no system role in
// chat history, so summary turns travel as user content.
func geminiHistory(turns []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return out
}

func currentTurnParts(req *ChatRequest) []genai.Part {
	var parts []genai.Part
	if req.Prompt != "" {
		parts = append(parts, genai.Text(req.Prompt))
	}
	for _, img := range req.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	return parts
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if blocked, reason := blockedResponse(resp); blocked {
		return "", NewError(KindBlocked, "gemini", fmt.Sprintf("response blocked: %s", reason))
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", NewError(KindMalformed, "gemini", "model returned no text")
	}
	return sb.String(), nil
}

func blockedResponse(resp *genai.GenerateContentResponse) (bool, string) {
	if resp == nil {
		return false, ""
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return true, resp.PromptFeedback.BlockReason.String()
	}
	for _, cand := range resp.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety {
			return true, cand.FinishReason.String()
		}
	}
	return false, ""
}

func defaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockMediumAndAbove,
		})
	}
	return settings
}

func wrapGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		kind := KindTransient
		switch gerr.Code {
		case 429:
			kind = KindRateLimited
		case 401, 403:
			kind = KindAuth
		case 404:
			kind = KindConfig
		}
		if kind == KindTransient && LooksBlocked(gerr.Message) {
			kind = KindBlocked
		}
		return &ProviderError{Kind: kind, Code: fmt.Sprintf("%d", gerr.Code), Provider: "gemini", Message: gerr.Message}
	}
	if LooksBlocked(err.Error()) {
		return NewError(KindBlocked, "gemini", err.Error())
	}
	logging.Debugf("gemini error passed through unclassified: %v", err)
	return err
}
