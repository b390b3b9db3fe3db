// Package store persists candidates, enrichment sessions, and scored
// identity candidates. PostgreSQL is the production backend; SQLite
// backs local single-user runs.
package store

import (
	"context"

	"github.com/sells-group/identity-cli/internal/model"
)

// SessionFilter specifies criteria for listing enrichment sessions.
type SessionFilter struct {
	TenantID    string              `json:"tenant_id,omitempty"`
	CandidateID string              `json:"candidate_id,omitempty"`
	Status      model.SessionStatus `json:"status,omitempty"`
	Limit       int                 `json:"limit,omitempty"`
	Offset      int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for the resolution engine.
type Store interface {
	// Candidates
	GetCandidate(ctx context.Context, tenantID, candidateID string) (*model.Candidate, error)
	UpsertCandidate(ctx context.Context, c model.Candidate) error
	BulkInsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error)
	MarkCandidateEnriched(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error

	// Sessions
	CreateSession(ctx context.Context, s model.EnrichmentSession) error
	UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error
	CompleteSession(ctx context.Context, s model.EnrichmentSession) error
	GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.EnrichmentSession, error)

	// Identity candidates
	UpsertIdentity(ctx context.Context, ic model.IdentityCandidate) error
	BulkUpsertIdentities(ctx context.Context, ics []model.IdentityCandidate) (int64, error)
	ListIdentities(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error)
	UpdateIdentityStatus(ctx context.Context, tenantID, candidateID string, platform model.Platform, platformID string, status model.IdentityStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
