// Package pipeline orchestrates one resolution run: hint extraction,
// the reverse-link pass, platform fan-out, scoring, gating, and
// persistence, with the run trace assembled along the way.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/identity-cli/internal/config"
	"github.com/sells-group/identity-cli/internal/events"
	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/platform"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/scoring"
	"github.com/sells-group/identity-cli/internal/search"
	"github.com/sells-group/identity-cli/internal/store"
	"github.com/sells-group/identity-cli/internal/trace"
)

// Early-stop reasons recorded on the session.
const (
	StopConfidenceReached = "confidence_reached"
	StopBudgetExhausted   = "budget_exhausted"
	StopTimeout           = "timeout"
)

// Summarizer produces the short review-inbox summary for a resolved
// candidate. Optional: a nil summarizer skips the summary phase.
type Summarizer interface {
	Summarize(ctx context.Context, c model.Candidate, identities []model.IdentityCandidate) (map[string]string, error)
}

// IdentityObserver receives each persisted identity. Metrics implement
// it; a nil observer is skipped.
type IdentityObserver interface {
	ObserveIdentity(ic model.IdentityCandidate)
}

// Job is one unit of enrichment work, delivered by the queue or run
// directly from the CLI.
type Job struct {
	SessionID   string                 `json:"session_id"`
	TenantID    string                 `json:"tenant_id"`
	CandidateID string                 `json:"candidate_id"`
	Type        model.JobType          `json:"job_type"`
	Budget      model.EnrichmentBudget `json:"budget"`
}

// Options wires the pipeline's dependencies.
type Options struct {
	Store      store.Store
	Sources    *platform.Registry
	Web        *search.Executor
	Scoring    config.ScoringConfig
	Discovery  config.DiscoveryConfig
	Summarizer Summarizer
	Events     events.Sink
	Observer   IdentityObserver
	Log        *zap.Logger
}

// Pipeline resolves one candidate per Run call. Safe for concurrent runs.
type Pipeline struct {
	store      store.Store
	sources    *platform.Registry
	web        *search.Executor
	scoring    config.ScoringConfig
	disc       config.DiscoveryConfig
	summarizer Summarizer
	events     events.Sink
	observer   IdentityObserver
	log        *zap.Logger
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	log := opts.Log
	if log == nil {
		log = zap.L()
	}
	return &Pipeline{
		store:      opts.Store,
		sources:    opts.Sources,
		web:        opts.Web,
		scoring:    opts.Scoring,
		disc:       opts.Discovery,
		summarizer: opts.Summarizer,
		events:     opts.Events,
		observer:   opts.Observer,
		log:        log,
	}
}

func (p *Pipeline) emit(sessionID string, ev events.Event) {
	if p.events == nil {
		return
	}
	p.events.Publish(sessionID, ev)
}

// Run executes one job end to end and returns the completed session.
func (p *Pipeline) Run(ctx context.Context, job Job) (*model.EnrichmentSession, error) {
	log := p.log.With(zap.String("session", job.SessionID), zap.String("candidate", job.CandidateID))

	cand, err := p.store.GetCandidate(ctx, job.TenantID, job.CandidateID)
	if err != nil {
		p.failSession(ctx, job, err)
		return nil, err
	}

	if job.Type == model.JobSummaryOnly {
		return p.runSummaryOnly(ctx, job, *cand)
	}

	budget := job.Budget.Normalize()
	start := time.Now().UTC()
	log.Info("pipeline: starting resolution",
		zap.String("slug", cand.LinkedInSlug),
		zap.Int("max_queries", budget.MaxQueries))

	if err := p.store.UpdateSessionStatus(ctx, job.SessionID, model.SessionRunning); err != nil {
		log.Warn("pipeline: failed to mark session running", zap.Error(err))
	}
	if err := p.store.MarkCandidateEnriched(ctx, job.TenantID, job.CandidateID, model.EnrichmentInProgress); err != nil {
		log.Warn("pipeline: failed to mark candidate in progress", zap.Error(err))
	}

	h := hints.Extract(*cand)
	tb := trace.NewBuilder(cand.ID, cand.LinkedInURL, h)

	p.emit(job.SessionID, events.Event{Type: events.TypeNodeStart, Node: "discovery"})
	disc := p.discover(ctx, job.SessionID, h, budget, tb)
	p.emit(job.SessionID, events.Event{Type: events.TypeNodeComplete, Node: "discovery", Data: map[string]any{
		"queries_executed": disc.queries,
		"findings":         len(disc.findings),
		"early_stop":       disc.earlyStop,
	}})

	// Score the merged findings once; per-platform evaluation during
	// discovery only drove early stop.
	var scored []scoredFinding
	for _, f := range disc.findings {
		r := scoring.Evaluate(scoring.Input{Hints: h, Facts: f.Facts, Signals: f.Signals, BridgeURL: f.BridgeURL})
		scored = append(scored, scoredFinding{Finding: f, Result: r})
		tb.RecordShadow(r.Confidence, scoring.ShadowScore(h, f.Facts, r.Bridge))
	}
	sortScored(scored)

	minConf := p.scoring.MinConfidence
	if minConf == 0 {
		minConf = scoring.DefaultMinConfidence
	}

	tier2Used := 0
	persisted := 0
	var bestPersisted float64
	persistedVariants := make(map[string]bool)

	for _, sf := range scored {
		gd := scoring.Gate(scoring.GateInput{
			Platform:           sf.Finding.Platform,
			Result:             sf.Result,
			Tier2Used:          tier2Used,
			MinConfidence:      p.scoring.MinConfidence,
			AutoMergeThreshold: p.scoring.AutoMergeThreshold,
			Tier2Cap:           p.scoring.Tier2Cap,
		})

		stored := false
		if gd.Persist {
			// The cap tracks gate grants, not store outcomes, so a write
			// failure cannot change which later identities pass.
			if sf.Result.Bridge.Tier == model.Tier2 {
				tier2Used++
			}
			ic := buildIdentity(job, sf, gd.Reason)
			if err := p.store.UpsertIdentity(ctx, ic); err != nil {
				tb.RecordPersistError()
				log.Warn("pipeline: identity persist failed",
					zap.String("platform", string(ic.Platform)),
					zap.String("platform_id", ic.PlatformID),
					zap.Error(err))
			} else {
				stored = true
				persisted++
				if sf.Result.Confidence > bestPersisted {
					bestPersisted = sf.Result.Confidence
				}
				if sf.Finding.Variant != "" {
					persistedVariants[sf.Finding.Variant] = true
				}
				if p.observer != nil {
					p.observer.ObserveIdentity(ic)
				}
				p.emit(job.SessionID, events.Event{Type: events.TypeIdentityFound, Platform: ic.Platform, Data: map[string]any{
					"platform_id": ic.PlatformID,
					"confidence":  ic.Confidence,
					"bucket":      string(ic.Bucket),
					"tier":        int(ic.BridgeTier),
				}})
			}
		} else {
			log.Debug("pipeline: identity dropped",
				zap.String("platform", string(sf.Finding.Platform)),
				zap.String("platform_id", sf.Finding.PlatformID),
				zap.String("reason", gd.Reason))
		}
		tb.RecordIdentity(sf.Result.Confidence >= minConf, gd.Persist, stored)
	}

	for _, v := range sortedVariants(disc.executedVariants) {
		if !persistedVariants[v] {
			tb.RecordRejection(v)
		}
	}

	if p.summarizer != nil && persisted > 0 {
		identities, err := p.store.ListIdentities(ctx, job.TenantID, job.CandidateID)
		if err == nil {
			if summary, serr := p.summarizer.Summarize(ctx, *cand, identities); serr != nil {
				log.Warn("pipeline: summary generation failed", zap.Error(serr))
			} else {
				tb.SetSummary(summary)
			}
		}
	}

	tr := tb.Build()
	finished := time.Now().UTC()
	sess := model.EnrichmentSession{
		ID:                  job.SessionID,
		TenantID:            job.TenantID,
		CandidateID:         job.CandidateID,
		Status:              model.SessionCompleted,
		PlannedSources:      disc.planned,
		ExecutedSources:     disc.executed,
		PlannedQueries:      budget.MaxQueries,
		ExecutedQueries:     disc.queries,
		EarlyStopReason:     disc.earlyStop,
		IdentitiesFound:     tr.Funnel.Found,
		IdentitiesPersisted: persisted,
		FinalConfidence:     bestPersisted,
		StartedAt:           &start,
		FinishedAt:          &finished,
		DurationMS:          finished.Sub(start).Milliseconds(),
		Trace:               &tr,
	}

	if err := p.store.CompleteSession(ctx, sess); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete session")
	}
	if err := p.store.MarkCandidateEnriched(ctx, job.TenantID, job.CandidateID, model.EnrichmentCompleted); err != nil {
		log.Warn("pipeline: failed to mark candidate completed", zap.Error(err))
	}

	p.emit(job.SessionID, events.Event{Type: events.TypeComplete, Data: map[string]any{
		"identities_found":     tr.Funnel.Found,
		"identities_persisted": persisted,
		"final_confidence":     bestPersisted,
	}})

	log.Info("pipeline: resolution finished",
		zap.Int("queries", disc.queries),
		zap.Int("found", tr.Funnel.Found),
		zap.Int("persisted", persisted),
		zap.Float64("best_confidence", bestPersisted),
		zap.String("early_stop", disc.earlyStop))

	return &sess, nil
}

// discovery is the aggregate outcome of the reverse-link pass plus the
// platform fan-out.
type discovery struct {
	findings         []platform.Finding
	queries          int
	planned          []model.Platform
	executed         []model.Platform
	executedVariants map[string]bool
	earlyStop        string
}

func (p *Pipeline) discover(ctx context.Context, sessionID string, h model.EnrichedHints, budget model.EnrichmentBudget, tb *trace.Builder) discovery {
	set := newFindingSet()

	var (
		mu            sync.Mutex
		queriesUsed   int
		executed      []model.Platform
		variants      = make(map[string]bool)
		earlyStop     string
		best          float64
		skippedBudget bool
	)

	runCtx, cancel := context.WithTimeout(ctx, budget.Timeout)
	defer cancel()

	noteConfidence := func(c float64) {
		stop := false
		mu.Lock()
		if c > best {
			best = c
		}
		if best >= budget.MinConfidenceForEarlyStop && earlyStop == "" {
			earlyStop = StopConfidenceReached
			stop = true
		}
		mu.Unlock()
		if stop {
			cancel()
		}
	}

	// Reverse-link pass first: its page-level bridges upgrade whatever
	// the platform sources find for the same profiles.
	if p.web != nil {
		reverseBudget := p.disc.ReverseLinkQueries
		if reverseBudget > budget.MaxQueries {
			reverseBudget = budget.MaxQueries
		}
		n, vs := p.reverseLinkPass(runCtx, sessionID, h, reverseBudget, tb, set, noteConfidence)
		queriesUsed += n
		for _, v := range vs {
			variants[v] = true
		}
		p.hydrateReverseLogins(runCtx, h, budget, set, noteConfidence)
	}

	planned := p.sources.Platforms()
	if len(planned) > budget.MaxPlatforms {
		planned = planned[:budget.MaxPlatforms]
	}
	alloc := allocateQueries(budget.MaxQueries-queriesUsed, planned)

	g := new(errgroup.Group)
	g.SetLimit(budget.MaxParallelPlatforms)
	for _, pf := range planned {
		share := alloc[pf]
		if share == 0 {
			skippedBudget = true
			continue
		}
		src := p.sources.Get(pf)
		g.Go(func() error {
			start := time.Now()
			findings, stats, derr := src.Discover(runCtx, h, share, budget.MaxIdentitiesPerPlatform)

			pt := model.PlatformTrace{
				Platform:        src.Platform(),
				Provider:        p.providerName(),
				QueriesExecuted: stats.QueriesExecuted,
				RawResults:      stats.RawResults,
				MatchedResults:  len(findings),
				IdentitiesFound: len(findings),
				DurationMS:      time.Since(start).Milliseconds(),
				RateLimited:     stats.RateLimited,
				ScoringVersion:  scoring.ScoringVersion,
			}
			if derr != nil {
				pt.Error = derr.Error()
				p.log.Warn("pipeline: platform discovery error",
					zap.String("platform", string(src.Platform())),
					zap.String("kind", string(resilience.KindOf(derr))),
					zap.Error(derr))
			}

			var platformBest float64
			for _, f := range findings {
				set.add(f)
				r := scoring.Evaluate(scoring.Input{Hints: h, Facts: f.Facts, Signals: f.Signals, BridgeURL: f.BridgeURL})
				if r.Confidence > platformBest {
					platformBest = r.Confidence
				}
			}
			pt.BestConfidence = platformBest
			tb.AddPlatform(pt)
			for _, v := range stats.Variants {
				tb.RecordQuery(v)
			}
			p.emit(sessionID, events.Event{Type: events.TypePlatformResult, Platform: src.Platform(), Data: map[string]any{
				"queries_executed": stats.QueriesExecuted,
				"identities_found": len(findings),
				"best_confidence":  platformBest,
			}})

			mu.Lock()
			queriesUsed += stats.QueriesExecuted
			executed = append(executed, src.Platform())
			for _, v := range stats.Variants {
				variants[v] = true
			}
			mu.Unlock()

			noteConfidence(platformBest)
			return nil
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if earlyStop == "" {
		switch {
		case ctx.Err() == nil && runCtx.Err() != nil:
			earlyStop = StopTimeout
		case skippedBudget || queriesUsed >= budget.MaxQueries:
			earlyStop = StopBudgetExhausted
		}
	}

	sort.Slice(executed, func(i, j int) bool { return executed[i] < executed[j] })

	return discovery{
		findings:         set.list(),
		queries:          queriesUsed,
		planned:          planned,
		executed:         executed,
		executedVariants: variants,
		earlyStop:        earlyStop,
	}
}

// hydrateReverseLogins runs every GitHub login the reverse-link pass
// surfaced through the profile API. A page sighting alone never exposes
// the bio and blog fields the Tier-1 signals live in.
func (p *Pipeline) hydrateReverseLogins(ctx context.Context, h model.EnrichedHints, budget model.EnrichmentBudget, set *findingSet, noteConfidence func(float64)) {
	hy, ok := p.sources.Get(model.PlatformGitHub).(platform.Hydrator)
	if !ok {
		return
	}

	var logins []string
	for _, f := range set.list() {
		if f.Platform == model.PlatformGitHub && !f.Hydrated {
			logins = append(logins, f.PlatformID)
		}
	}
	if len(logins) == 0 {
		return
	}

	findings, err := hy.Hydrate(ctx, h, logins, budget.MaxIdentitiesPerPlatform)
	if err != nil {
		p.log.Warn("pipeline: reverse-link login hydration failed", zap.Error(err))
	}

	var best float64
	for _, f := range findings {
		set.add(f)
		r := scoring.Evaluate(scoring.Input{Hints: h, Facts: f.Facts, Signals: f.Signals, BridgeURL: f.BridgeURL})
		if r.Confidence > best {
			best = r.Confidence
		}
	}
	if best > 0 {
		noteConfidence(best)
	}
}

// allocateQueries splits the remaining query budget evenly across the
// planned platforms, with the remainder going to the platforms that come
// first in registry order (GitHub, by name, is among them).
func allocateQueries(remaining int, platforms []model.Platform) map[model.Platform]int {
	alloc := make(map[model.Platform]int, len(platforms))
	if remaining <= 0 || len(platforms) == 0 {
		return alloc
	}
	share := remaining / len(platforms)
	extra := remaining % len(platforms)
	for i, pf := range platforms {
		alloc[pf] = share
		if i < extra {
			alloc[pf]++
		}
	}
	return alloc
}

func (p *Pipeline) providerName() string {
	if p.web == nil {
		return ""
	}
	return p.web.ProviderName()
}

func buildIdentity(job Job, sf scoredFinding, reason string) model.IdentityCandidate {
	r := sf.Result
	return model.IdentityCandidate{
		TenantID:          job.TenantID,
		CandidateID:       job.CandidateID,
		Platform:          sf.Finding.Platform,
		PlatformID:        sf.Finding.PlatformID,
		ProfileURL:        sf.Finding.ProfileURL,
		Confidence:        r.Confidence,
		Bucket:            r.Bucket,
		Breakdown:         r.Breakdown,
		Evidence:          sf.Finding.Evidence,
		HasContradiction:  r.HasContradiction,
		ContradictionNote: r.ContradictionNote,
		BridgeTier:        r.Bridge.Tier,
		BridgeSignals:     r.Bridge.Signals,
		PersistReason:     reason,
		DiscoveredBy:      job.SessionID,
		Status:            model.IdentityUnconfirmed,
		SERPPosition:      sf.Finding.SERPPosition,
	}
}

// failSession marks the session failed with the error's kind as the
// failure reason. Used for job-fatal errors before discovery starts.
func (p *Pipeline) failSession(ctx context.Context, job Job, cause error) {
	tb := trace.NewBuilder(job.CandidateID, "", model.EnrichedHints{})
	tb.SetFailure(string(resilience.KindOf(cause)))
	tr := tb.Build()

	now := time.Now().UTC()
	sess := model.EnrichmentSession{
		ID:           job.SessionID,
		TenantID:     job.TenantID,
		CandidateID:  job.CandidateID,
		Status:       model.SessionFailed,
		ErrorMessage: cause.Error(),
		FinishedAt:   &now,
		Trace:        &tr,
	}
	if err := p.store.CompleteSession(ctx, sess); err != nil {
		p.log.Warn("pipeline: failed to record session failure",
			zap.String("session", job.SessionID), zap.Error(err))
	}
	p.emit(job.SessionID, events.Event{Type: events.TypeError, Data: map[string]any{
		"reason": string(resilience.KindOf(cause)),
		"error":  cause.Error(),
	}})
	if resilience.KindOf(cause) != resilience.KindCandidateNotFound {
		if err := p.store.MarkCandidateEnriched(ctx, job.TenantID, job.CandidateID, model.EnrichmentFailed); err != nil {
			p.log.Debug("pipeline: failed to mark candidate failed", zap.Error(err))
		}
	}
}

func (p *Pipeline) runSummaryOnly(ctx context.Context, job Job, cand model.Candidate) (*model.EnrichmentSession, error) {
	if p.summarizer == nil {
		err := eris.New("pipeline: summary job without summarizer")
		p.failSession(ctx, job, err)
		return nil, err
	}

	start := time.Now().UTC()
	if err := p.store.UpdateSessionStatus(ctx, job.SessionID, model.SessionRunning); err != nil {
		p.log.Warn("pipeline: failed to mark session running", zap.Error(err))
	}

	identities, err := p.store.ListIdentities(ctx, job.TenantID, job.CandidateID)
	if err != nil {
		p.failSession(ctx, job, err)
		return nil, err
	}

	summary, err := p.summarizer.Summarize(ctx, cand, identities)
	if err != nil {
		p.failSession(ctx, job, err)
		return nil, eris.Wrap(err, "pipeline: generate summary")
	}

	h := hints.Extract(cand)
	tb := trace.NewBuilder(cand.ID, cand.LinkedInURL, h)
	tb.SetSummary(summary)
	tr := tb.Build()

	finished := time.Now().UTC()
	sess := model.EnrichmentSession{
		ID:          job.SessionID,
		TenantID:    job.TenantID,
		CandidateID: job.CandidateID,
		Status:      model.SessionCompleted,
		StartedAt:   &start,
		FinishedAt:  &finished,
		DurationMS:  finished.Sub(start).Milliseconds(),
		Trace:       &tr,
	}
	if err := p.store.CompleteSession(ctx, sess); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete session")
	}
	return &sess, nil
}

func sortedVariants(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
