package model

import "time"

// EnrichmentBudget bounds a single resolution run. Exceeding the budget
// is not an error: the pipeline returns the partial result with
// early-stop reason "budget_exhausted".
type EnrichmentBudget struct {
	MaxQueries                int           `json:"max_queries"`
	MaxPlatforms              int           `json:"max_platforms"`
	MaxIdentitiesPerPlatform  int           `json:"max_identities_per_platform"`
	Timeout                   time.Duration `json:"timeout"`
	MaxParallelPlatforms      int           `json:"max_parallel_platforms"`
	MinConfidenceForEarlyStop float64       `json:"min_confidence_for_early_stop"`
}

// DefaultBudget returns the standard per-run budget.
func DefaultBudget() EnrichmentBudget {
	return EnrichmentBudget{
		MaxQueries:                30,
		MaxPlatforms:              10,
		MaxIdentitiesPerPlatform:  5,
		Timeout:                   60 * time.Second,
		MaxParallelPlatforms:      3,
		MinConfidenceForEarlyStop: 0.90,
	}
}

// Normalize fills zero-valued fields from the defaults so a partially
// specified budget from a job payload is always usable.
func (b EnrichmentBudget) Normalize() EnrichmentBudget {
	def := DefaultBudget()
	if b.MaxQueries <= 0 {
		b.MaxQueries = def.MaxQueries
	}
	if b.MaxPlatforms <= 0 {
		b.MaxPlatforms = def.MaxPlatforms
	}
	if b.MaxIdentitiesPerPlatform <= 0 {
		b.MaxIdentitiesPerPlatform = def.MaxIdentitiesPerPlatform
	}
	if b.Timeout <= 0 {
		b.Timeout = def.Timeout
	}
	if b.MaxParallelPlatforms <= 0 {
		b.MaxParallelPlatforms = def.MaxParallelPlatforms
	}
	if b.MinConfidenceForEarlyStop <= 0 {
		b.MinConfidenceForEarlyStop = def.MinConfidenceForEarlyStop
	}
	return b
}
