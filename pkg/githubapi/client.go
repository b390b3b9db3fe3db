// Package githubapi wraps the slice of the GitHub REST API the
// discovery pipeline needs: user search, profiles, repos, and commit
// listings for bridge evidence.
package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-cli/internal/resilience"
)

const defaultBaseURL = "https://api.github.com"

// Client performs GitHub REST API operations.
type Client interface {
	SearchUsers(ctx context.Context, query string, perPage int) (*UserSearchResult, error)
	GetUser(ctx context.Context, login string) (*User, error)
	ListRepos(ctx context.Context, login string, perPage int) ([]Repo, error)
	ListCommits(ctx context.Context, owner, repo, author string, perPage int) ([]Commit, error)
	// Quota reports the rate allowance from the most recent response.
	Quota() (Quota, bool)
}

// UserSearchResult is the response from GET /search/users.
type UserSearchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []SearchUser `json:"items"`
}

// SearchUser is the abbreviated user record search returns.
type SearchUser struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// User is a full profile from GET /users/{login}.
type User struct {
	Login       string `json:"login"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Blog        string `json:"blog"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
	HTMLURL     string `json:"html_url"`
}

// Repo is a repository summary from GET /users/{login}/repos.
type Repo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Fork        bool   `json:"fork"`
}

// Commit is a commit record from GET /repos/{owner}/{repo}/commits.
type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
}

// CommitDetail carries the git-level author block.
type CommitDetail struct {
	Author CommitAuthor `json:"author"`
}

// CommitAuthor is the git author identity on a commit.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Quota is the core rate allowance from X-RateLimit headers.
type Quota struct {
	Remaining int
	Reset     time.Time
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

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	quota *Quota
}

// NewClient creates a GitHub API client. An empty token uses the
// unauthenticated allowance.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchUsers(ctx context.Context, query string, perPage int) (*UserSearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(perPage))

	var result UserSearchResult
	if err := c.get(ctx, "/search/users?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) GetUser(ctx context.Context, login string) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/"+url.PathEscape(login), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *httpClient) ListRepos(ctx context.Context, login string, perPage int) ([]Repo, error) {
	path := fmt.Sprintf("/users/%s/repos?sort=pushed&per_page=%d", url.PathEscape(login), perPage)
	var repos []Repo
	if err := c.get(ctx, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *httpClient) ListCommits(ctx context.Context, owner, repo, author string, perPage int) ([]Commit, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits?author=%s&per_page=%d",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(author), perPage)
	var commits []Commit
	if err := c.get(ctx, path, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *httpClient) Quota() (Quota, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quota == nil {
		return Quota{}, false
	}
	return *c.quota, true
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "github: create request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.E(resilience.KindNetwork, eris.Wrap(err, "github: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	c.recordQuota(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resilience.E(resilience.KindNetwork, eris.Wrap(err, "github: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return &resilience.Error{
			Kind:       resilience.KindForStatus(resp.StatusCode),
			Err:        eris.Errorf("github: unexpected status %d for %s: %s", resp.StatusCode, path, string(respBody)),
			Provider:   "github",
			StatusCode: resp.StatusCode,
			RetryAfter: githubRetryAfter(resp.Header),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return resilience.E(resilience.KindParse, eris.Wrap(err, "github: unmarshal response"))
	}
	return nil
}

func (c *httpClient) recordQuota(h http.Header) {
	remaining, err1 := strconv.Atoi(h.Get("X-Ratelimit-Remaining"))
	resetEpoch, err2 := strconv.ParseInt(h.Get("X-Ratelimit-Reset"), 10, 64)
	if err1 != nil || err2 != nil {
		return
	}
	c.mu.Lock()
	c.quota = &Quota{Remaining: remaining, Reset: time.Unix(resetEpoch, 0)}
	c.mu.Unlock()
}

// githubRetryAfter prefers an explicit Retry-After, falling back to the
// time until the rate window resets.
func githubRetryAfter(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if epoch, err := strconv.ParseInt(h.Get("X-Ratelimit-Reset"), 10, 64); err == nil {
		if wait := time.Until(time.Unix(epoch, 0)); wait > 0 {
			return wait
		}
	}
	return 0
}
