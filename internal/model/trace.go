package model

// Funnel is the four-stage identity count recorded per platform and in
// aggregate. Invariant: Persisted <= PassingPersistGuard <=
// AboveMinConfidence <= Found.
type Funnel struct {
	Found               int `json:"identities_found_total"`
	AboveMinConfidence  int `json:"above_min_confidence"`
	PassingPersistGuard int `json:"passing_persist_guard"`
	Persisted           int `json:"persisted"`
}

// VariantStat aggregates executed vs rejected counts for one query
// variant id across a run.
type VariantStat struct {
	Variant  string `json:"variant"`
	Executed int    `json:"executed"`
	Rejected int    `json:"rejected"`
}

// ShadowSummary reports the observability-only dynamic scorer alongside
// the static score. It never affects persistence or ranking.
type ShadowSummary struct {
	Scored        int     `json:"scored"`
	MeanStatic    float64 `json:"mean_static"`
	MeanDynamic   float64 `json:"mean_dynamic"`
	MaxDivergence float64 `json:"max_divergence"`
}

// PlatformTrace is the per-platform diagnostic fragment of a run trace.
type PlatformTrace struct {
	Platform        Platform `json:"platform"`
	Provider        string   `json:"provider,omitempty"`
	QueriesExecuted int      `json:"queries_executed"`
	RawResults      int      `json:"raw_results"`
	MatchedResults  int      `json:"matched_results"`
	IdentitiesFound int      `json:"identities_found"`
	BestConfidence  float64  `json:"best_confidence"`
	DurationMS      int64    `json:"duration_ms"`
	Error           string   `json:"error,omitempty"`
	RateLimited     bool     `json:"rate_limited"`
	ScoringVersion  string   `json:"scoring_version,omitempty"`
	// UnmatchedSample holds up to a handful of result URLs that were seen
	// but produced no identity, for debugging zero-hit runs.
	UnmatchedSample []string `json:"unmatched_sample,omitempty"`
}

// RunTrace is the structured diagnostic record attached to a session.
// It is emitted verbatim into the session row and consumed by CI gates.
type RunTrace struct {
	CandidateID string        `json:"candidate_id"`
	LinkedInURL string        `json:"linkedin_url"`
	SeedHints   EnrichedHints `json:"seed_hints"`

	Platforms []PlatformTrace `json:"platforms"`

	TotalQueries         int           `json:"total_queries"`
	PlatformsQueried     []Platform    `json:"platforms_queried"`
	PlatformsWithHits    []Platform    `json:"platforms_with_hits"`
	Funnel               Funnel        `json:"funnel"`
	PersistErrors        int           `json:"persist_errors"`
	BestConfidence       float64       `json:"best_confidence"`
	ProvidersUsed        []string      `json:"providers_used"`
	RateLimitedProviders []string      `json:"rate_limited_providers,omitempty"`
	VariantStats         []VariantStat `json:"variant_stats,omitempty"`
	Shadow               ShadowSummary `json:"shadow_scoring"`

	FailureReason string            `json:"failure_reason,omitempty"`
	Summary       map[string]string `json:"summary,omitempty"`
}
