package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

// SearchResult is one organic hit from the search backend.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SearchResponse carries everything worth feeding back into a prompt.
type SearchResponse struct {
	Query   string
	Answer  string // direct answer box, when the engine has one
	Results []SearchResult
}

// SearchClient queries the Serper API for web results used to ground
// chat responses in current information.
type SearchClient struct {
	apiKey   string
	client   *http.Client
	endpoint string
	maxHits  int
}

type serperResponse struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
		Title   string `json:"title"`
	} `json:"answerBox,omitempty"`
	Organic []SearchResult `json:"organic"`
}

// NewSearchClient creates a search client.
func NewSearchClient(apiKey string) *SearchClient {
	return &SearchClient{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: serperEndpoint,
		maxHits:  5,
	}
}

// Enabled reports whether search is configured.
func (c *SearchClient) Enabled() bool {
	return c.apiKey != ""
}

// Search runs a query and returns structured results.
func (c *SearchClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, restError("serper", resp.StatusCode, string(data))
	}

	var parsed serperResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &SearchResponse{Query: query}
	if parsed.AnswerBox != nil {
		if parsed.AnswerBox.Answer != "" {
			out.Answer = parsed.AnswerBox.Answer
		} else {
			out.Answer = parsed.AnswerBox.Snippet
		}
	}
	if len(parsed.Organic) > c.maxHits {
		parsed.Organic = parsed.Organic[:c.maxHits]
	}
	out.Results = parsed.Organic
	return out, nil
}

// FormatContext renders search results as a context block prepended to
// the model prompt.
func (r *SearchResponse) FormatContext() string {
	if r == nil || (r.Answer == "" && len(r.Results) == 0) {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Web search results for \"")
	sb.WriteString(r.Query)
	sb.WriteString("\":\n")
	if r.Answer != "" {
		sb.WriteString("Answer: ")
		sb.WriteString(r.Answer)
		sb.WriteString("\n")
	}
	for i, res := range r.Results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, res.Title, res.Snippet, res.Link)
	}
	return sb.String()
}
