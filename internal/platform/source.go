// Package platform defines the discovery Source interface, the registry
// the pipeline fans out over, and the concrete platform adapters.
package platform

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/scoring"
)

// Finding is one profile a source proposes for scoring. Sources collect
// facts and raw signals; classification and scoring happen downstream.
type Finding struct {
	Platform   model.Platform
	PlatformID string
	ProfileURL string

	Facts     scoring.ProfileFacts
	Signals   []model.Signal
	BridgeURL string
	Evidence  []model.Evidence

	// SERPPosition is where the profile was first seen in search results;
	// used as the deterministic tie-breaker.
	SERPPosition int
	// Variant names the query variant that surfaced the profile.
	Variant string
	// Hydrated marks facts fetched from the platform's API rather than
	// scraped off a search snippet.
	Hydrated bool
}

// Stats reports what a Discover call actually did, for the run trace.
type Stats struct {
	QueriesExecuted int
	// Variants holds the variant tag of each executed query, in order.
	Variants    []string
	RawResults  int
	RateLimited bool
}

func (st *Stats) record(variant string, results int) {
	st.QueriesExecuted++
	st.Variants = append(st.Variants, variant)
	st.RawResults += results
}

// Source discovers profile candidates on one platform.
type Source interface {
	Platform() model.Platform
	// Discover runs the platform's query plan within maxQueries searches
	// and returns at most maxFindings findings. A non-nil error with
	// partial findings is allowed; the pipeline records both.
	Discover(ctx context.Context, h model.EnrichedHints, maxQueries, maxFindings int) ([]Finding, Stats, error)
}

// Hydrator is implemented by sources that can fetch full profiles for
// ids surfaced by another pass, so those sightings pick up the bridge
// signals only the platform's API exposes.
type Hydrator interface {
	Hydrate(ctx context.Context, h model.EnrichedHints, ids []string, maxFindings int) ([]Finding, error)
}

// Registry holds the registered sources the pipeline fans out over.
type Registry struct {
	mu      sync.RWMutex
	sources map[model.Platform]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[model.Platform]Source)}
}

// Register adds a source, replacing any previous one for its platform.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Platform()] = s
}

// Get returns the source for a platform, or nil.
func (r *Registry) Get(p model.Platform) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[p]
}

// Platforms lists registered platforms in stable sorted order.
func (r *Registry) Platforms() []model.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Platform, 0, len(r.sources))
	for p := range r.sources {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
