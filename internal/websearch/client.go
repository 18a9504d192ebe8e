// Package websearch implements the web search collaborator used by the
// cause-analysis enrichment step. It speaks the Tavily JSON-over-HTTP API
// and re-filters results by relevance score regardless of what the
// upstream service returns.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/retrolens/retrolens/internal/metrics"
)

// DefaultEndpoint is the Tavily search API endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the outcome of one search call after filtering.
type Response struct {
	// Results are the hits that passed the score filter, in source order.
	Results []Result

	// Query is the original, untruncated query.
	Query string

	// ResponseTime is the upstream-reported search duration in seconds.
	ResponseTime float64
}

// Searcher is the interface consumed by agents. A zero-result response is
// valid; implementations must not treat it as an error.
type Searcher interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Config controls query shaping and result filtering.
type Config struct {
	// ScoreThreshold is the minimum relevance score a result must meet.
	ScoreThreshold float64

	// MaxResults caps the number of results kept after filtering.
	MaxResults int

	// MaxQueryLength truncates outgoing queries to this many bytes.
	MaxQueryLength int

	// SearchDepth is the upstream search mode ("basic" or "advanced").
	SearchDepth string

	// Endpoint overrides the API endpoint. Empty means DefaultEndpoint.
	Endpoint string
}

// DefaultClientConfig returns the stock filtering configuration.
func DefaultClientConfig() Config {
	return Config{
		ScoreThreshold: 0.20,
		MaxResults:     3,
		MaxQueryLength: 400,
		SearchDepth:    "advanced",
	}
}

// Client is a Tavily API client.
type Client struct {
	apiKey     string
	config     Config
	httpClient *http.Client
}

// NewClient creates a search client. The API key falls back to the
// TAVILY_API_KEY environment variable when empty.
func NewClient(apiKey string, cfg Config) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "advanced"
	}
	return &Client{
		apiKey: apiKey,
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time"`
}

// Search implements Searcher. The query is truncated to MaxQueryLength
// before being sent; results are filtered by score and capped locally.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	resp, err := c.search(ctx, query)
	metrics.ObserveSearch(err)
	return resp, err
}

func (c *Client) search(ctx context.Context, query string) (*Response, error) {
	truncated := query
	if c.config.MaxQueryLength > 0 && len(truncated) > c.config.MaxQueryLength {
		truncated = truncated[:c.config.MaxQueryLength]
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       truncated,
		SearchDepth: c.config.SearchDepth,
		MaxResults:  c.config.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("search request returned %d: %s", httpResp.StatusCode, string(payload))
	}

	var decoded searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &Response{
		Results:      Filter(decoded.Results, c.config.ScoreThreshold, c.config.MaxResults),
		Query:        query,
		ResponseTime: decoded.ResponseTime,
	}, nil
}

// Filter keeps results whose score meets the threshold, preserving source
// order, and stops once max results have been collected.
func Filter(results []Result, threshold float64, max int) []Result {
	filtered := make([]Result, 0, max)
	for _, r := range results {
		if r.Score < threshold {
			continue
		}
		if max > 0 && len(filtered) >= max {
			break
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Contents extracts the content field from each result, in order.
func Contents(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out
}

var _ Searcher = (*Client)(nil)
