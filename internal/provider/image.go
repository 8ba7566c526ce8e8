package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"prism/internal/logging"
)

const geminiRESTBase = "https://generativelanguage.googleapis.com/v1beta"

// ImageProvider generates and edits images through the Gemini REST API.
// The SDK pinned for chat has no image-output surface, so this client
// speaks the wire format directly.
type ImageProvider struct {
	apiKey string
	model  string
	client *http.Client
	base   string
}

// imageContent mirrors the REST content schema for requests and responses.
type imageContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []imagePart `json:"parts"`
}

type imagePart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *imageInlineData `json:"inlineData,omitempty"`
}

type imageInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type imageGenConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        float64  `json:"temperature,omitempty"`
}

type imageRequest struct {
	Contents         []imageContent  `json:"contents"`
	GenerationConfig *imageGenConfig `json:"generationConfig,omitempty"`
}

type imageResponse struct {
	Candidates []struct {
		Content      imageContent `json:"content"`
		FinishReason string       `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewImageProvider creates an image generation provider.
func NewImageProvider(apiKey, model string) *ImageProvider {
	return &ImageProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 5 * time.Minute},
		base:   geminiRESTBase,
	}
}

// ID returns the provider identifier
func (p *ImageProvider) ID() string {
	return "gemini-image"
}

// Generate produces images for a prompt, optionally conditioned on
// source images for edits.
func (p *ImageProvider) Generate(ctx context.Context, req *MediaRequest) (*MediaResult, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	parts := []imagePart{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, imagePart{
			InlineData: &imageInlineData{
				MIMEType: img.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	body := imageRequest{
		Contents: []imageContent{{Role: "user", Parts: parts}},
		GenerationConfig: &imageGenConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	var parsed imageResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.base, model, p.apiKey)
	if err := p.postJSON(ctx, url, body, &parsed); err != nil {
		return nil, err
	}

	if parsed.Error != nil {
		return nil, restError("gemini-image", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return nil, NewError(KindBlocked, "gemini-image",
			fmt.Sprintf("request blocked: %s", parsed.PromptFeedback.BlockReason))
	}

	result := &MediaResult{}
	for _, cand := range parsed.Candidates {
		if cand.FinishReason == "SAFETY" {
			return nil, NewError(KindBlocked, "gemini-image", "response blocked by safety filters")
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				result.Text += part.Text
			}
			if part.InlineData != nil {
				file, err := DecodeInlineData(part.InlineData.MIMEType, part.InlineData.Data)
				if err != nil {
					logging.Warnf("skipping undecodable image part: %v", err)
					continue
				}
				result.Files = append(result.Files, file)
			}
		}
	}

	if len(result.Files) == 0 {
		if LooksBlocked(result.Text) {
			return nil, NewError(KindBlocked, "gemini-image", "model declined the request")
		}
		return nil, NewError(KindMalformed, "gemini-image", "model returned no image")
	}
	return result, nil
}

func (p *ImageProvider) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return restError("gemini-image", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// restError maps an HTTP status from a hand-rolled provider call to the
// shared error taxonomy.
func restError(providerID string, code int, message string) *ProviderError {
	kind := KindTransient
	switch code {
	case 429:
		kind = KindRateLimited
	case 401, 403:
		kind = KindAuth
	case 404:
		kind = KindConfig
	case 400:
		kind = KindMalformed
	}
	if kind == KindTransient && LooksBlocked(message) {
		kind = KindBlocked
	}
	return &ProviderError{Kind: kind, Code: fmt.Sprintf("%d", code), Provider: providerID, Message: message}
}
