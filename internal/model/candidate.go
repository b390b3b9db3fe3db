// Package model defines the domain types shared across the identity
// resolution engine: candidates, hints, queries, discovered identities,
// enrichment sessions, and run traces.
package model

import "time"

// RoleType categorizes a candidate's likely role, used to steer query
// planning (tech keywords, conference variants).
type RoleType string

const (
	RoleEngineer      RoleType = "engineer"
	RoleDataScientist RoleType = "data_scientist"
	RoleResearcher    RoleType = "researcher"
	RoleFounder       RoleType = "founder"
	RoleDesigner      RoleType = "designer"
	RoleGeneral       RoleType = "general"
)

// EnrichmentStatus tracks where a candidate is in its enrichment lifecycle.
type EnrichmentStatus string

const (
	EnrichmentNone       EnrichmentStatus = "none"
	EnrichmentInProgress EnrichmentStatus = "in_progress"
	EnrichmentCompleted  EnrichmentStatus = "completed"
	EnrichmentFailed     EnrichmentStatus = "failed"
)

// SERPMetadata is the stored knowledge-graph / answer-box blob captured
// alongside the SERP result that pointed at the candidate.
type SERPMetadata struct {
	KnowledgeGraph map[string]string `json:"knowledge_graph,omitempty"`
	AnswerBox      map[string]string `json:"answer_box,omitempty"`
	// LocaleCountry is the two-letter country code inferred from the
	// LinkedIn locale of the SERP URL (e.g. "us", "de").
	LocaleCountry string `json:"locale_country,omitempty"`
}

// Candidate is the input anchor for a resolution run. It is created by
// ingestion outside the engine; the worker only advances status and
// timestamps.
type Candidate struct {
	ID           string           `json:"id"`
	TenantID     string           `json:"tenant_id"`
	LinkedInSlug string           `json:"linkedin_slug"`
	LinkedInURL  string           `json:"linkedin_url"`
	SERPTitle    string           `json:"serp_title"`
	SERPSnippet  string           `json:"serp_snippet"`
	SERPMeta     *SERPMetadata    `json:"serp_meta,omitempty"`
	Role         RoleType         `json:"role_type"`
	Status       EnrichmentStatus `json:"enrichment_status"`
	LastEnriched *time.Time       `json:"last_enriched_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
