package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prism/internal/logging"
)

// VideoProvider drives long-running video generation through the Gemini
// REST API: submit a predictLongRunning job, poll the operation until it
// completes, then download the rendered samples.
type VideoProvider struct {
	apiKey       string
	model        string
	client       *http.Client
	base         string
	pollInterval time.Duration
}

type videoSubmitRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	NumberOfVideos  int    `json:"numberOfVideos,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
			RAIMediaFilteredCount int `json:"raiMediaFilteredCount,omitempty"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewVideoProvider creates a video generation provider.
func NewVideoProvider(apiKey, model string, pollInterval time.Duration) *VideoProvider {
	if pollInterval <= 0 {
		pollInterval = 20 * time.Second
	}
	return &VideoProvider{
		apiKey: apiKey,
		model:  model,
		// Per-call timeout covers one HTTP exchange; the overall job
		// deadline comes from the caller's context.
		client:       &http.Client{Timeout: 2 * time.Minute},
		base:         geminiRESTBase,
		pollInterval: pollInterval,
	}
}

// ID returns the provider identifier
func (p *VideoProvider) ID() string {
	return "veo"
}

// Generate submits a render job and blocks until it finishes, the
// context expires, or the backend reports failure.
func (p *VideoProvider) Generate(ctx context.Context, req *MediaRequest) (*MediaResult, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	opName, err := p.submit(ctx, model, req)
	if err != nil {
		return nil, err
	}
	logging.Infof("video job submitted: %s", opName)

	op, err := p.waitForOperation(ctx, opName)
	if err != nil {
		return nil, err
	}

	if op.Error != nil {
		return nil, restError("veo", op.Error.Code, op.Error.Message)
	}
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return nil, NewError(KindMalformed, "veo", "operation finished without a response")
	}

	gvr := op.Response.GenerateVideoResponse
	if len(gvr.GeneratedSamples) == 0 {
		if gvr.RAIMediaFilteredCount > 0 {
			return nil, NewError(KindBlocked, "veo", "all samples were filtered by safety policy")
		}
		return nil, NewError(KindMalformed, "veo", "operation produced no samples")
	}

	result := &MediaResult{}
	for i, sample := range gvr.GeneratedSamples {
		data, err := p.download(ctx, sample.Video.URI)
		if err != nil {
			// One bad sample should not sink the others.
			logging.Warnf("video sample %d download failed: %v", i, err)
			continue
		}
		result.Files = append(result.Files, MediaFile{Data: data, Ext: ".mp4"})
	}
	if len(result.Files) == 0 {
		return nil, NewError(KindTransient, "veo", "no video sample could be downloaded")
	}
	return result, nil
}

func (p *VideoProvider) submit(ctx context.Context, model string, req *MediaRequest) (string, error) {
	params := videoParameters{
		AspectRatio:     req.AspectRatio,
		NumberOfVideos:  req.NumberOfVideos,
		DurationSeconds: req.DurationSeconds,
	}
	if params.AspectRatio == "" {
		params.AspectRatio = "16:9"
	}
	if params.NumberOfVideos <= 0 {
		params.NumberOfVideos = 1
	}
	body := videoSubmitRequest{
		Instances:  []videoInstance{{Prompt: req.Prompt}},
		Parameters: params,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", p.base, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit video job: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", restError("veo", resp.StatusCode, string(data))
	}

	var op videoOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if op.Name == "" {
		return "", NewError(KindMalformed, "veo", "submit returned no operation name")
	}
	return op.Name, nil
}

func (p *VideoProvider) waitForOperation(ctx context.Context, name string) (*videoOperation, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, NewError(KindTimeout, "veo", "video generation timed out")
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}

		op, err := p.pollOperation(ctx, name)
		if err != nil {
			// Poll hiccups are not fatal while the deadline holds.
			logging.Warnf("video poll failed: %v", err)
			continue
		}
		if op.Done {
			return op, nil
		}
	}
}

func (p *VideoProvider) pollOperation(ctx context.Context, name string) (*videoOperation, error) {
	url := fmt.Sprintf("%s/%s?key=%s", p.base, name, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, restError("veo", resp.StatusCode, string(data))
	}

	var op videoOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (p *VideoProvider) download(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty video uri")
	}
	if !strings.Contains(uri, "key=") {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		uri = uri + sep + "key=" + p.apiKey
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
