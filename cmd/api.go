package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/identity-cli/internal/events"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/monitoring"
	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/queue"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/store"
)

// jobEnqueuer is the slice of queue.Enqueuer the API needs.
type jobEnqueuer interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) (*pipeline.Job, error)
}

// apiServer hosts the HTTP API: job submission, session inspection, SSE
// progress, health, and metrics.
type apiServer struct {
	store   store.Store
	enq     jobEnqueuer
	hub     *events.Hub
	metrics *monitoring.Metrics
	limiter *rate.Limiter
	log     *zap.Logger
}

func newAPIServer(st store.Store, enq jobEnqueuer, hub *events.Hub, m *monitoring.Metrics, limiter *rate.Limiter) *apiServer {
	return &apiServer{store: st, enq: enq, hub: hub, metrics: m, limiter: limiter, log: zap.L()}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/enrich", s.handleEnqueue(model.JobEnrich))
		r.Post("/summarize", s.handleEnqueue(model.JobSummaryOnly))
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/events", s.handleSessionEvents)
		r.Get("/candidates/{id}/sessions", s.handleCandidateSessions)
	})

	return r
}

type enrichRequest struct {
	TenantID    string                  `json:"tenant_id"`
	CandidateID string                  `json:"candidate_id"`
	Budget      *model.EnrichmentBudget `json:"budget,omitempty"`
}

type enrichResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// handleEnqueue submits a job of the given type. The candidate must
// already exist for the tenant; the inbound token bucket protects the
// queue from request floods.
func (s *apiServer) handleEnqueue(jobType model.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}

		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.TenantID == "" || req.CandidateID == "" {
			writeError(w, http.StatusBadRequest, "tenant_id and candidate_id are required")
			return
		}

		if _, err := s.store.GetCandidate(r.Context(), req.TenantID, req.CandidateID); err != nil {
			if resilience.KindOf(err) == resilience.KindCandidateNotFound {
				writeError(w, http.StatusPreconditionFailed, "precondition_failed: candidate not found for tenant")
				return
			}
			s.log.Error("api: candidate lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "store error")
			return
		}

		enqReq := queue.EnqueueRequest{
			TenantID:    req.TenantID,
			CandidateID: req.CandidateID,
			Type:        jobType,
		}
		if req.Budget != nil {
			enqReq.Budget = *req.Budget
		}

		job, err := s.enq.Enqueue(r.Context(), enqReq)
		if err != nil {
			s.log.Error("api: enqueue failed",
				zap.String("candidate", req.CandidateID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		writeJSON(w, http.StatusAccepted, enrichResponse{
			SessionID: job.SessionID,
			Status:    string(model.SessionQueued),
		})
	}
}

func (s *apiServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if resilience.KindOf(err) == resilience.KindNotFound {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.log.Error("api: get session failed", zap.String("session", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *apiServer) handleCandidateSessions(w http.ResponseWriter, r *http.Request) {
	filter := store.SessionFilter{
		CandidateID: chi.URLParam(r, "id"),
		TenantID:    r.URL.Query().Get("tenant"),
		Limit:       20,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		s.log.Error("api: list sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleSessionEvents streams pipeline progress for one session as
// server-sent events until the client disconnects.
func (s *apiServer) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.hub.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Warn("api: marshal event failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	queued, err := s.store.ListSessions(r.Context(), store.SessionFilter{
		Status: model.SessionQueued,
		Limit:  1000,
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}

	if s.metrics != nil {
		s.metrics.SetQueueDepth(len(queued))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": len(queued),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
