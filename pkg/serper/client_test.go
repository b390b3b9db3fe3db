package serper

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
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `"Jane Doe" Acme github`, body.Q)
		assert.Equal(t, 10, body.Num)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Organic: []OrganicResult{
				{
					Title:    "janedoe (Jane Doe) · GitHub",
					Link:     "https://github.com/janedoe",
					Snippet:  "Platform engineer at Acme.",
					Position: 1,
				},
			},
			KnowledgeGraph: &KnowledgeGraph{Title: "Jane Doe", Type: "Software engineer"},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), `"Jane Doe" Acme github`)

	require.NoError(t, err)
	require.Len(t, resp.Organic, 1)
	assert.Equal(t, "https://github.com/janedoe", resp.Organic[0].Link)
	assert.Equal(t, 1, resp.Organic[0].Position)
	require.NotNil(t, resp.KnowledgeGraph)
	assert.Equal(t, "Jane Doe", resp.KnowledgeGraph.Title)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "nonexistent person xyz")

	require.NoError(t, err)
	assert.Empty(t, resp.Organic)
	assert.Nil(t, resp.KnowledgeGraph)
}

func TestSearch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "test")

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, resilience.KindRateLimited, resilience.KindOf(err))

	wait, ok := resilience.RetryAfterOf(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)
}

func TestSearch_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, resilience.KindAuth, resilience.KindOf(err))
	assert.False(t, resilience.IsRecoverable(err))
}

func TestSearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"organic": [{`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "test")

	require.Error(t, err)
	assert.Equal(t, resilience.KindParse, resilience.KindOf(err))
}

func TestSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(ctx, "test")

	assert.Error(t, err)
	assert.Nil(t, resp)
}
