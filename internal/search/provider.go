// Package search executes planned queries against web-search providers
// with rate limiting, retries, circuit breaking, and a replay mode for
// deterministic tests and evals.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/pkg/brave"
	"github.com/sells-group/identity-cli/pkg/serper"
)

// Result is one normalized search hit.
type Result struct {
	Title    string `json:"title" yaml:"title"`
	URL      string `json:"url" yaml:"url"`
	Snippet  string `json:"snippet" yaml:"snippet"`
	Position int    `json:"position" yaml:"position"`
}

// Response is the normalized provider response, including the SERP
// metadata blocks hint extraction reads.
type Response struct {
	Results        []Result          `json:"results" yaml:"results"`
	KnowledgeGraph map[string]string `json:"knowledge_graph,omitempty" yaml:"knowledge_graph,omitempty"`
	AnswerBox      map[string]string `json:"answer_box,omitempty" yaml:"answer_box,omitempty"`
}

// Provider executes one search query.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*Response, error)
}

type serperProvider struct {
	client serper.Client
}

// NewSerperProvider adapts a Serper client to the Provider interface.
func NewSerperProvider(c serper.Client) Provider {
	return &serperProvider{client: c}
}

func (p *serperProvider) Name() string { return "serper" }

func (p *serperProvider) Search(ctx context.Context, query string) (*Response, error) {
	resp, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := &Response{Results: make([]Result, 0, len(resp.Organic))}
	for i, hit := range resp.Organic {
		pos := hit.Position
		if pos == 0 {
			pos = i + 1
		}
		out.Results = append(out.Results, Result{
			Title:    hit.Title,
			URL:      hit.Link,
			Snippet:  hit.Snippet,
			Position: pos,
		})
	}

	if kg := resp.KnowledgeGraph; kg != nil {
		out.KnowledgeGraph = map[string]string{}
		for k, v := range kg.Attributes {
			out.KnowledgeGraph[k] = v
		}
		if kg.Title != "" {
			out.KnowledgeGraph["title"] = kg.Title
		}
		if kg.Type != "" {
			out.KnowledgeGraph["type"] = kg.Type
		}
		if kg.Description != "" {
			out.KnowledgeGraph["description"] = kg.Description
		}
		if kg.Website != "" {
			out.KnowledgeGraph["website"] = kg.Website
		}
	}
	if ab := resp.AnswerBox; ab != nil {
		out.AnswerBox = map[string]string{}
		if ab.Title != "" {
			out.AnswerBox["title"] = ab.Title
		}
		if ab.Answer != "" {
			out.AnswerBox["answer"] = ab.Answer
		}
		if ab.Snippet != "" {
			out.AnswerBox["snippet"] = ab.Snippet
		}
	}

	return out, nil
}

// Quota fail-fast thresholds: when the plan allowance is nearly gone and
// the window resets far in the future, stop burning queries.
const (
	quotaMinRemaining = 5
	quotaMinReset     = 5 * time.Minute
)

type braveProvider struct {
	client brave.Client

	mu    sync.Mutex
	quota brave.Quota
}

// NewBraveProvider adapts a Brave client to the Provider interface,
// tracking the plan quota across calls so an exhausted allowance fails
// fast instead of draining retries.
func NewBraveProvider(c brave.Client) Provider {
	return &braveProvider{client: c}
}

func (p *braveProvider) Name() string { return "brave" }

func (p *braveProvider) Search(ctx context.Context, query string) (*Response, error) {
	p.mu.Lock()
	q := p.quota
	p.mu.Unlock()
	if q.Known && q.Remaining < quotaMinRemaining && q.Reset > quotaMinReset {
		return nil, &resilience.Error{
			Kind:       resilience.KindRateLimited,
			Err:        eris.Errorf("brave: quota nearly exhausted (%d remaining, resets in %s)", q.Remaining, q.Reset),
			Provider:   "brave",
			RetryAfter: q.Reset,
		}
	}

	resp, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if resp.Quota.Known {
		p.mu.Lock()
		p.quota = resp.Quota
		p.mu.Unlock()
	}

	out := &Response{Results: make([]Result, 0, len(resp.Web.Results))}
	for i, hit := range resp.Web.Results {
		out.Results = append(out.Results, Result{
			Title:    hit.Title,
			URL:      hit.URL,
			Snippet:  hit.Description,
			Position: i + 1,
		})
	}
	return out, nil
}

type fallbackProvider struct {
	primary   Provider
	secondary Provider
}

// NewFallbackProvider routes to primary and falls back to secondary on
// recoverable failures (rate limits, transient outages).
func NewFallbackProvider(primary, secondary Provider) Provider {
	return &fallbackProvider{primary: primary, secondary: secondary}
}

func (p *fallbackProvider) Name() string { return "web" }

func (p *fallbackProvider) Search(ctx context.Context, query string) (*Response, error) {
	resp, err := p.primary.Search(ctx, query)
	if err == nil {
		return resp, nil
	}
	if !resilience.IsRecoverable(err) {
		return nil, err
	}
	return p.secondary.Search(ctx, query)
}
