package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/identity-cli/internal/events"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/monitoring"
	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/queue"
	"github.com/sells-group/identity-cli/internal/store"
)

type stubEnqueuer struct {
	lastReq queue.EnqueueRequest
	err     error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, req queue.EnqueueRequest) (*pipeline.Job, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &pipeline.Job{
		SessionID:   "sess-1",
		TenantID:    req.TenantID,
		CandidateID: req.CandidateID,
		Type:        req.Type,
	}, nil
}

func newTestAPI(t *testing.T) (*apiServer, store.Store, *stubEnqueuer, *events.Hub) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.UpsertCandidate(context.Background(), model.Candidate{
		ID:           "cand-1",
		TenantID:     "t1",
		LinkedInSlug: "jane-doe-12345",
		SERPTitle:    "Jane Doe - Platform Engineer - Acme | LinkedIn",
	}))

	enq := &stubEnqueuer{}
	hub := events.NewHub(zap.NewNop())
	api := newAPIServer(st, enq, hub, monitoring.New(), nil)
	return api, st, enq, hub
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Enrich(t *testing.T) {
	api, _, enq, _ := newTestAPI(t)
	router := api.routes()

	rec := postJSON(t, router, "/api/enrich", `{"tenant_id":"t1","candidate_id":"cand-1","budget":{"max_queries":12}}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp enrichResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, model.JobEnrich, enq.lastReq.Type)
	assert.Equal(t, 12, enq.lastReq.Budget.MaxQueries)
}

func TestAPI_SummarizeUsesSummaryJobType(t *testing.T) {
	api, _, enq, _ := newTestAPI(t)

	rec := postJSON(t, api.routes(), "/api/summarize", `{"tenant_id":"t1","candidate_id":"cand-1"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, model.JobSummaryOnly, enq.lastReq.Type)
}

func TestAPI_EnrichUnknownCandidate(t *testing.T) {
	api, _, _, _ := newTestAPI(t)

	rec := postJSON(t, api.routes(), "/api/enrich", `{"tenant_id":"t1","candidate_id":"nope"}`)

	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, rec.Body.String(), "precondition_failed")
}

func TestAPI_EnrichWrongTenant(t *testing.T) {
	api, _, _, _ := newTestAPI(t)

	rec := postJSON(t, api.routes(), "/api/enrich", `{"tenant_id":"t2","candidate_id":"cand-1"}`)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestAPI_EnrichBadRequests(t *testing.T) {
	api, _, _, _ := newTestAPI(t)
	router := api.routes()

	assert.Equal(t, http.StatusBadRequest, postJSON(t, router, "/api/enrich", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, router, "/api/enrich", `{"tenant_id":"t1"}`).Code)
}

func TestAPI_EnrichRateLimited(t *testing.T) {
	api, _, _, _ := newTestAPI(t)
	api.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	router := api.routes()

	first := postJSON(t, router, "/api/enrich", `{"tenant_id":"t1","candidate_id":"cand-1"}`)
	require.Equal(t, http.StatusAccepted, first.Code)

	second := postJSON(t, router, "/api/enrich", `{"tenant_id":"t1","candidate_id":"cand-1"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestAPI_EnqueueFailure(t *testing.T) {
	api, _, enq, _ := newTestAPI(t)
	enq.err = eris.New("temporal unavailable")

	rec := postJSON(t, api.routes(), "/api/enrich", `{"tenant_id":"t1","candidate_id":"cand-1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAPI_GetSession(t *testing.T) {
	api, st, _, _ := newTestAPI(t)
	require.NoError(t, st.CreateSession(context.Background(), model.EnrichmentSession{
		ID: "sess-1", TenantID: "t1", CandidateID: "cand-1", Status: model.SessionQueued,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var sess model.EnrichmentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "cand-1", sess.CandidateID)
}

func TestAPI_GetSessionNotFound(t *testing.T) {
	api, _, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CandidateSessions(t *testing.T) {
	api, st, _, _ := newTestAPI(t)
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, st.CreateSession(context.Background(), model.EnrichmentSession{
			ID: id, TenantID: "t1", CandidateID: "cand-1", Status: model.SessionCompleted,
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/candidates/cand-1/sessions?tenant=t1&limit=2", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sessions []model.EnrichmentSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 2)
}

func TestAPI_CandidateSessionsInvalidLimit(t *testing.T) {
	api, _, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/candidates/cand-1/sessions?limit=zero", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Health(t *testing.T) {
	api, st, _, _ := newTestAPI(t)
	require.NoError(t, st.CreateSession(context.Background(), model.EnrichmentSession{
		ID: "sess-q", TenantID: "t1", CandidateID: "cand-1", Status: model.SessionQueued,
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.EqualValues(t, 1, resp["queue_depth"])
}

func TestAPI_Metrics(t *testing.T) {
	api, _, _, _ := newTestAPI(t)
	api.metrics.SetQueueDepth(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "identity_queue_depth 2")
}

func TestAPI_SessionEventsStream(t *testing.T) {
	api, _, _, hub := newTestAPI(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/sess-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Publish once the handler has subscribed.
	go func() {
		for hub.SubscriberCount("sess-1") == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
		hub.Publish("sess-1", events.Event{
			Type: events.TypeIdentityFound,
			Data: map[string]any{"platform_id": "janedoe"},
		})
	}()

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = line
		case strings.HasPrefix(line, "data: "):
			dataLine = line
		}
		if eventLine != "" && dataLine != "" {
			break
		}
	}

	assert.Equal(t, "event: "+string(events.TypeIdentityFound), eventLine)
	assert.Contains(t, dataLine, `"platform_id":"janedoe"`)
}
