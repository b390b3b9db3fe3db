package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/events"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/platform"
	"github.com/sells-group/identity-cli/internal/queryplan"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/scoring"
	"github.com/sells-group/identity-cli/internal/trace"
)

// reverseLinkPass runs the who-links-to-this-profile queries before the
// platform fan-out. It is sequential: the pass is cheap (a handful of
// queries) and its findings seed the merge set the platform workers add
// to. Returns the number of queries executed and their variant tags.
func (p *Pipeline) reverseLinkPass(
	ctx context.Context,
	sessionID string,
	h model.EnrichedHints,
	maxQueries int,
	tb *trace.Builder,
	set *findingSet,
	noteConfidence func(float64),
) (int, []string) {
	queries := queryplan.PlanReverseLink(h, maxQueries)
	if len(queries) == 0 {
		return 0, nil
	}

	start := time.Now()
	pt := model.PlatformTrace{
		Platform:       model.PlatformWeb,
		Provider:       p.providerName(),
		ScoringVersion: scoring.ScoringVersion,
	}

	var (
		best     float64
		variants []string
	)
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		resp, err := p.web.Do(ctx, q.Text)
		pt.QueriesExecuted++
		variants = append(variants, q.Variant)
		tb.RecordQuery(q.Variant)
		if err != nil {
			if resilience.KindOf(err) == resilience.KindRateLimited {
				pt.RateLimited = true
			}
			if pt.Error == "" {
				pt.Error = err.Error()
			}
			p.log.Warn("pipeline: reverse-link query failed",
				zap.String("variant", q.Variant), zap.Error(err))
			if resilience.IsJobFatal(err) {
				break
			}
			continue
		}

		pt.RawResults += len(resp.Results)
		for _, hit := range resp.Results {
			f, ok := platform.FindingFromSERP(h, hit, q.Variant)
			if !ok {
				if len(pt.UnmatchedSample) < 5 {
					pt.UnmatchedSample = append(pt.UnmatchedSample, hit.URL)
				}
				continue
			}
			pt.MatchedResults++
			set.add(f)
			r := scoring.Evaluate(scoring.Input{Hints: h, Facts: f.Facts, Signals: f.Signals, BridgeURL: f.BridgeURL})
			if r.Confidence > best {
				best = r.Confidence
			}
		}
	}

	pt.IdentitiesFound = pt.MatchedResults
	pt.BestConfidence = best
	pt.DurationMS = time.Since(start).Milliseconds()
	tb.AddPlatform(pt)
	p.emit(sessionID, events.Event{Type: events.TypePlatformResult, Platform: model.PlatformWeb, Data: map[string]any{
		"queries_executed": pt.QueriesExecuted,
		"identities_found": pt.IdentitiesFound,
		"best_confidence":  best,
	}})
	noteConfidence(best)

	return pt.QueriesExecuted, variants
}
