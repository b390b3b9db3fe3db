// Package trace accumulates the per-run diagnostic record the pipeline
// attaches to every enrichment session.
package trace

import (
	"math"
	"sort"
	"sync"

	"github.com/sells-group/identity-cli/internal/model"
)

// Builder collects trace fragments from concurrent platform workers and
// assembles a consistent RunTrace. All methods are safe for concurrent
// use.
type Builder struct {
	mu sync.Mutex

	candidateID string
	linkedInURL string
	seedHints   model.EnrichedHints

	platforms []model.PlatformTrace
	funnel    model.Funnel

	variantExecuted map[string]int
	variantRejected map[string]int

	persistErrors int
	failureReason string
	summary       map[string]string

	scored     int
	staticSum  float64
	dynamicSum float64
	maxDiverge float64
}

// NewBuilder starts a trace for one run.
func NewBuilder(candidateID, linkedInURL string, hints model.EnrichedHints) *Builder {
	return &Builder{
		candidateID:     candidateID,
		linkedInURL:     linkedInURL,
		seedHints:       hints,
		variantExecuted: make(map[string]int),
		variantRejected: make(map[string]int),
	}
}

// AddPlatform records one platform's trace fragment.
func (b *Builder) AddPlatform(pt model.PlatformTrace) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.platforms = append(b.platforms, pt)
}

// RecordQuery counts one executed query for a variant.
func (b *Builder) RecordQuery(variant string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.variantExecuted[variant]++
}

// RecordRejection counts a query variant whose results produced no
// persisted identity.
func (b *Builder) RecordRejection(variant string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.variantRejected[variant]++
}

// RecordIdentity advances the funnel one identity at a time.
func (b *Builder) RecordIdentity(aboveMin, passedGuard, persisted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.funnel.Found++
	if aboveMin {
		b.funnel.AboveMinConfidence++
	}
	if aboveMin && passedGuard {
		b.funnel.PassingPersistGuard++
	}
	if aboveMin && passedGuard && persisted {
		b.funnel.Persisted++
	}
}

// RecordShadow logs one static/dynamic score pair.
func (b *Builder) RecordShadow(static, dynamic float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scored++
	b.staticSum += static
	b.dynamicSum += dynamic
	if d := math.Abs(static - dynamic); d > b.maxDiverge {
		b.maxDiverge = d
	}
}

// RecordPersistError counts a store conflict or write failure.
func (b *Builder) RecordPersistError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persistErrors++
}

// SetFailure records the run-level failure reason.
func (b *Builder) SetFailure(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureReason = reason
}

// SetSummary attaches the generated candidate summary fields.
func (b *Builder) SetSummary(summary map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = summary
}

// Build assembles the final RunTrace. Platform fragments are sorted by
// platform name so output is stable.
func (b *Builder) Build() model.RunTrace {
	b.mu.Lock()
	defer b.mu.Unlock()

	platforms := append([]model.PlatformTrace(nil), b.platforms...)
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].Platform < platforms[j].Platform })

	t := model.RunTrace{
		CandidateID:   b.candidateID,
		LinkedInURL:   b.linkedInURL,
		SeedHints:     b.seedHints,
		Platforms:     platforms,
		Funnel:        b.funnel,
		PersistErrors: b.persistErrors,
		FailureReason: b.failureReason,
		Summary:       b.summary,
	}

	providers := map[string]bool{}
	rateLimited := map[string]bool{}
	for _, pt := range platforms {
		t.TotalQueries += pt.QueriesExecuted
		t.PlatformsQueried = append(t.PlatformsQueried, pt.Platform)
		if pt.IdentitiesFound > 0 {
			t.PlatformsWithHits = append(t.PlatformsWithHits, pt.Platform)
		}
		if pt.BestConfidence > t.BestConfidence {
			t.BestConfidence = pt.BestConfidence
		}
		if pt.Provider != "" {
			providers[pt.Provider] = true
			if pt.RateLimited {
				rateLimited[pt.Provider] = true
			}
		}
	}
	t.ProvidersUsed = sortedKeys(providers)
	t.RateLimitedProviders = sortedKeys(rateLimited)

	variants := map[string]bool{}
	for v := range b.variantExecuted {
		variants[v] = true
	}
	for v := range b.variantRejected {
		variants[v] = true
	}
	for _, v := range sortedKeys(variants) {
		t.VariantStats = append(t.VariantStats, model.VariantStat{
			Variant:  v,
			Executed: b.variantExecuted[v],
			Rejected: b.variantRejected[v],
		})
	}

	if b.scored > 0 {
		t.Shadow = model.ShadowSummary{
			Scored:        b.scored,
			MeanStatic:    b.staticSum / float64(b.scored),
			MeanDynamic:   b.dynamicSum / float64(b.scored),
			MaxDivergence: b.maxDiverge,
		}
	}

	return t
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
