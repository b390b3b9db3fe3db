// Package brave wraps the Brave Search web API.
package brave

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-cli/internal/resilience"
)

const defaultBaseURL = "https://api.search.brave.com/res/v1"

// Client performs Brave web searches.
type Client interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// SearchResponse is the response from GET /web/search. Quota is filled
// from rate-limit headers, not the body.
type SearchResponse struct {
	Web   WebResults `json:"web"`
	Quota Quota      `json:"-"`
}

// WebResults holds the organic web results block.
type WebResults struct {
	Results []Result `json:"results"`
}

// Result is a single web hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Quota is the monthly plan allowance parsed from X-RateLimit headers.
type Quota struct {
	Remaining int
	Reset     time.Duration
	Known     bool
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCount sets how many results to request per query.
func WithCount(n int) Option {
	return func(c *httpClient) {
		c.count = n
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	count   int
	http    *http.Client
}

// NewClient creates a Brave Search API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		count:   10,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/web/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "brave: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.E(resilience.KindNetwork, eris.Wrap(err, "brave: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.E(resilience.KindNetwork, eris.Wrap(err, "brave: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.Error{
			Kind:       resilience.KindForStatus(resp.StatusCode),
			Err:        eris.Errorf("brave: unexpected status %d: %s", resp.StatusCode, string(respBody)),
			Provider:   "brave",
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header),
		}
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, resilience.E(resilience.KindParse, eris.Wrap(err, "brave: unmarshal response"))
	}
	result.Quota = parseQuota(resp.Header)

	return &result, nil
}

// parseQuota reads the plan allowance from the comma-separated
// X-RateLimit headers. Brave reports "per-second, per-month" pairs; the
// last element is the monthly budget.
func parseQuota(h http.Header) Quota {
	remaining, ok1 := lastInt(h.Get("X-RateLimit-Remaining"))
	reset, ok2 := lastInt(h.Get("X-RateLimit-Reset"))
	if !ok1 || !ok2 {
		return Quota{}
	}
	return Quota{
		Remaining: remaining,
		Reset:     time.Duration(reset) * time.Second,
		Known:     true,
	}
}

func lastInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	parts := strings.Split(v, ",")
	n, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func retryAfter(h http.Header) time.Duration {
	secs, ok := lastInt(h.Get("Retry-After"))
	if !ok || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
