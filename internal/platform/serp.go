package platform

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/queryplan"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/scoring"
	"github.com/sells-group/identity-cli/internal/search"
)

// SERPSource covers the handle-oriented platforms that have no usable
// public API: findings come entirely from search results, with the
// snippet and title standing in for profile facts.
type SERPSource struct {
	platform model.Platform
	exec     *search.Executor
	log      *zap.Logger
}

// NewSERPSource builds a search-only source for the given platform.
func NewSERPSource(p model.Platform, exec *search.Executor) *SERPSource {
	return &SERPSource{platform: p, exec: exec, log: zap.L()}
}

func (s *SERPSource) Platform() model.Platform { return s.platform }

// Discover runs the platform's handle plan and classifies hits.
func (s *SERPSource) Discover(ctx context.Context, h model.EnrichedHints, maxQueries, maxFindings int) ([]Finding, Stats, error) {
	queries := queryplan.PlanHandles(s.platform, h, maxQueries)
	if len(queries) == 0 {
		return nil, Stats{}, nil
	}

	seen := make(map[string]bool)
	var findings []Finding
	var firstErr error
	var stats Stats

	for _, q := range queries {
		if ctx.Err() != nil || len(findings) >= maxFindings {
			break
		}
		resp, err := s.exec.Do(ctx, q.Text)
		if err != nil {
			stats.record(q.Variant, 0)
			if resilience.KindOf(err) == resilience.KindRateLimited {
				stats.RateLimited = true
			}
			if firstErr == nil {
				firstErr = err
			}
			if resilience.IsJobFatal(err) {
				break
			}
			continue
		}
		stats.record(q.Variant, len(resp.Results))

		for _, hit := range resp.Results {
			if len(findings) >= maxFindings {
				break
			}
			p, id, ok := Classify(hit.URL)
			if !ok || p != s.platform || seen[id] {
				continue
			}
			seen[id] = true
			findings = append(findings, s.buildFinding(h, id, hit, q.Variant))
		}
	}

	return findings, stats, firstErr
}

func (s *SERPSource) buildFinding(h model.EnrichedHints, id string, hit search.Result, variant string) Finding {
	f := Finding{
		Platform:     s.platform,
		PlatformID:   id,
		ProfileURL:   hit.URL,
		SERPPosition: hit.Position,
		Variant:      variant,
		Facts: scoring.ProfileFacts{
			Platform:    s.platform,
			Handle:      id,
			DisplayName: displayNameFromTitle(hit.Title),
			Bio:         hit.Snippet,
			ViaSearch:   true,
		},
	}

	// A snippet quoting the candidate's LinkedIn URL is page-level bridge
	// evidence even without fetching the page.
	if MentionsCandidate(hit.Title+" "+hit.Snippet, h.LinkedInID) {
		f.Signals = append(f.Signals, model.SignalLinkedInURLInPage)
		f.BridgeURL = hit.URL
		f.Evidence = append(f.Evidence, model.Evidence{URL: hit.URL, Type: "page"})
	}

	return f
}

// displayNameFromTitle takes the segment before the platform branding:
// "Jane Doe – Medium" yields "Jane Doe".
func displayNameFromTitle(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " · "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}
