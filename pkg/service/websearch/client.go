package websearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/utils/safe"
)

// Result is one web search hit
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"description"`
}

// Service performs web searches for the assistant
type Service interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// client talks to the Jina search API (s.jina.ai)
type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for client configuration
type Option func(*client)

// WithBaseURL overrides the search endpoint (used in tests)
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// New creates a new Jina web search client. The API key may be empty;
// Jina serves unauthenticated requests at a lower rate limit.
func New(apiKey string, opts ...Option) Service {
	c := &client{
		apiKey:  apiKey,
		baseURL: "https://s.jina.ai",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, goerr.New("query is required")
	}

	endpoint := c.baseURL + "/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build search request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call search API", goerr.V("query", query))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, goerr.New("search API returned non-OK status",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
		)
	}

	var payload struct {
		Data []Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, goerr.Wrap(err, "failed to decode search response")
	}

	return payload.Data, nil
}
