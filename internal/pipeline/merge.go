package pipeline

import (
	"math"
	"sort"
	"sync"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/platform"
	"github.com/sells-group/identity-cli/internal/scoring"
)

// findingSet merges findings for the same (platform, id) pair across the
// reverse-link pass and the platform sources: signals are unioned,
// evidence deduplicated, and empty facts filled from later sightings.
// Safe for concurrent use.
type findingSet struct {
	mu    sync.Mutex
	order []string
	byKey map[string]*platform.Finding
}

func newFindingSet() *findingSet {
	return &findingSet{byKey: make(map[string]*platform.Finding)}
}

func (s *findingSet) add(f platform.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(f.Platform) + "\x00" + f.PlatformID
	existing, ok := s.byKey[key]
	if !ok {
		cp := f
		s.byKey[key] = &cp
		s.order = append(s.order, key)
		return
	}
	mergeFinding(existing, f)
}

func (s *findingSet) list() []platform.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]platform.Finding, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byKey[key])
	}
	return out
}

func mergeFinding(dst *platform.Finding, src platform.Finding) {
	for _, sig := range src.Signals {
		if !hasSignal(dst.Signals, sig) {
			dst.Signals = append(dst.Signals, sig)
		}
	}
	if dst.BridgeURL == "" {
		dst.BridgeURL = src.BridgeURL
	}
	for _, ev := range src.Evidence {
		if !hasEvidence(dst.Evidence, ev.URL) {
			dst.Evidence = append(dst.Evidence, ev)
		}
	}
	if src.SERPPosition > 0 && (dst.SERPPosition == 0 || src.SERPPosition < dst.SERPPosition) {
		dst.SERPPosition = src.SERPPosition
	}
	if src.Hydrated && !dst.Hydrated {
		facts := src.Facts
		fillFacts(&facts, dst.Facts)
		dst.Facts = facts
		dst.Hydrated = true
	} else {
		fillFacts(&dst.Facts, src.Facts)
	}
}

// fillFacts keeps the first sighting's facts and fills gaps from later
// ones: an API-hydrated profile always beats a SERP snippet, but a
// snippet still contributes when the API gave nothing.
func fillFacts(dst *scoring.ProfileFacts, src scoring.ProfileFacts) {
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.Bio == "" {
		dst.Bio = src.Bio
	}
	if dst.Company == "" {
		dst.Company = src.Company
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.BlogURL == "" {
		dst.BlogURL = src.BlogURL
	}
	if dst.Followers == 0 {
		dst.Followers = src.Followers
	}
	if dst.PublicRepos == 0 {
		dst.PublicRepos = src.PublicRepos
	}
	if dst.CommitEmailMatches == 0 {
		dst.CommitEmailMatches = src.CommitEmailMatches
	}
	dst.ViaSearch = dst.ViaSearch || src.ViaSearch
}

func hasSignal(sigs []model.Signal, s model.Signal) bool {
	for _, sig := range sigs {
		if sig == s {
			return true
		}
	}
	return false
}

func hasEvidence(evs []model.Evidence, url string) bool {
	for _, ev := range evs {
		if ev.URL == url {
			return true
		}
	}
	return false
}

// scoredFinding pairs a finding with its evaluation.
type scoredFinding struct {
	Finding platform.Finding
	Result  scoring.Result
}

// sortScored orders identities for gating and output: bridge tier
// ascending, confidence descending (rounded to 0.01 so float noise
// cannot flip ranks), SERP position ascending with unknown positions
// last, then platform and id as the total-order fallback.
func sortScored(scored []scoredFinding) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Result.Bridge.Tier != b.Result.Bridge.Tier {
			return a.Result.Bridge.Tier < b.Result.Bridge.Tier
		}
		ac := math.Round(a.Result.Confidence * 100)
		bc := math.Round(b.Result.Confidence * 100)
		if ac != bc {
			return ac > bc
		}
		ap, bp := serpRank(a.Finding.SERPPosition), serpRank(b.Finding.SERPPosition)
		if ap != bp {
			return ap < bp
		}
		if a.Finding.Platform != b.Finding.Platform {
			return a.Finding.Platform < b.Finding.Platform
		}
		return a.Finding.PlatformID < b.Finding.PlatformID
	})
}

func serpRank(pos int) int {
	if pos <= 0 {
		return math.MaxInt32
	}
	return pos
}
