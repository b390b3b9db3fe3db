package model

import "time"

// SessionStatus is the lifecycle state of an enrichment session.
type SessionStatus string

const (
	SessionQueued    SessionStatus = "queued"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// JobType selects what a queued job does.
type JobType string

const (
	JobEnrich      JobType = "enrich"
	JobSummaryOnly JobType = "summary_only"
)

// EnrichmentSession records one resolution run end to end. The session
// owns its run trace; identities reference the session id as
// "discovered_by" only.
type EnrichmentSession struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	CandidateID string        `json:"candidate_id"`
	Status      SessionStatus `json:"status"`

	PlannedSources  []Platform `json:"planned_sources,omitempty"`
	ExecutedSources []Platform `json:"executed_sources,omitempty"`
	PlannedQueries  int        `json:"planned_queries"`
	ExecutedQueries int        `json:"executed_queries"`

	EarlyStopReason    string  `json:"early_stop_reason,omitempty"`
	IdentitiesFound    int     `json:"identities_found"`
	IdentitiesPersisted int    `json:"identities_persisted"`
	FinalConfidence    float64 `json:"final_confidence"`

	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`

	Trace *RunTrace `json:"run_trace,omitempty"`
}
