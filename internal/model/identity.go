package model

import "time"

// Platform identifies an external platform an identity can live on.
type Platform string

const (
	PlatformGitHub      Platform = "github"
	PlatformNPM         Platform = "npm"
	PlatformPyPI        Platform = "pypi"
	PlatformKaggle      Platform = "kaggle"
	PlatformORCID       Platform = "orcid"
	PlatformScholar     Platform = "scholar"
	PlatformCrunchbase  Platform = "crunchbase"
	PlatformDribbble    Platform = "dribbble"
	PlatformMedium      Platform = "medium"
	PlatformTwitter     Platform = "twitter"
	PlatformSubstack    Platform = "substack"
	PlatformCompanyTeam Platform = "companyteam"
	PlatformWeb         Platform = "web"
)

// Bucket is the discretised confidence band of an identity candidate.
type Bucket string

const (
	BucketAutoMerge Bucket = "auto_merge"
	BucketSuggest   Bucket = "suggest"
	BucketLow       Bucket = "low"
	BucketRejected  Bucket = "rejected"
)

// IdentityStatus is the review state of a persisted identity candidate.
type IdentityStatus string

const (
	IdentityUnconfirmed IdentityStatus = "unconfirmed"
	IdentityConfirmed   IdentityStatus = "confirmed"
	IdentityRejected    IdentityStatus = "rejected"
)

// ScoreBreakdown holds the six weighted confidence components, their
// clamped sum, and the scoring version that produced them.
type ScoreBreakdown struct {
	BridgeWeight        float64 `json:"bridge_weight"`
	NameMatch           float64 `json:"name_match"`
	HandleMatch         float64 `json:"handle_match"`
	CompanyMatch        float64 `json:"company_match"`
	LocationMatch       float64 `json:"location_match"`
	ProfileCompleteness float64 `json:"profile_completeness"`
	Total               float64 `json:"total"`
	ScoringVersion      string  `json:"scoring_version"`
}

// Evidence is an opaque pointer to a public page backing a signal.
// Evidence never carries email addresses, only URLs.
type Evidence struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// IdentityCandidate is a scored platform profile proposed as belonging
// to a candidate. Uniqueness: (tenant, candidate, platform, platform_id);
// upserts merge updates into the existing row.
type IdentityCandidate struct {
	TenantID    string   `json:"tenant_id"`
	CandidateID string   `json:"candidate_id"`
	Platform    Platform `json:"platform"`
	PlatformID  string   `json:"platform_id"`
	ProfileURL  string   `json:"profile_url"`

	Confidence float64        `json:"confidence"`
	Bucket     Bucket         `json:"confidence_bucket"`
	Breakdown  ScoreBreakdown `json:"score_breakdown"`
	Evidence   []Evidence     `json:"evidence,omitempty"`

	HasContradiction  bool   `json:"has_contradiction"`
	ContradictionNote string `json:"contradiction_note,omitempty"`

	BridgeTier    Tier     `json:"bridge_tier"`
	BridgeSignals []Signal `json:"bridge_signals"`
	PersistReason string   `json:"persist_reason"`

	DiscoveredBy string         `json:"discovered_by"`
	Status       IdentityStatus `json:"status"`

	// SERPPosition is the position of the search result the identity was
	// first seen at, used as the final deterministic tie-breaker.
	SERPPosition int `json:"serp_position,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
