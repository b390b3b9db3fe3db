package brave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-cli/internal/resilience"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/web/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, `"linkedin.com/in/jane-doe-12345"`, r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("count"))

		w.Header().Set("X-RateLimit-Remaining", "1, 1842")
		w.Header().Set("X-RateLimit-Reset", "1, 86400")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Web: WebResults{Results: []Result{
				{
					Title:       "Jane Doe — Personal Site",
					URL:         "https://janedoe.dev/about",
					Description: "Find me on linkedin.com/in/jane-doe-12345",
				},
			}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), `"linkedin.com/in/jane-doe-12345"`)

	require.NoError(t, err)
	require.Len(t, resp.Web.Results, 1)
	assert.Equal(t, "https://janedoe.dev/about", resp.Web.Results[0].URL)

	assert.True(t, resp.Quota.Known)
	assert.Equal(t, 1842, resp.Quota.Remaining)
	assert.Equal(t, 24*time.Hour, resp.Quota.Reset)
}

func TestSearch_MissingQuotaHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "test")

	require.NoError(t, err)
	assert.False(t, resp.Quota.Known)
}

func TestSearch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "quota exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, resilience.KindRateLimited, resilience.KindOf(err))
	wait, ok := resilience.RetryAfterOf(err)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, resilience.KindTransient, resilience.KindOf(err))
	assert.True(t, resilience.IsRecoverable(err))
}

func TestLastInt(t *testing.T) {
	n, ok := lastInt("1, 1842")
	require.True(t, ok)
	assert.Equal(t, 1842, n)

	n, ok = lastInt("7")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = lastInt("")
	assert.False(t, ok)

	_, ok = lastInt("1, oops")
	assert.False(t, ok)
}
