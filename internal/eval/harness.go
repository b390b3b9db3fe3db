package eval

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/config"
	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/scoring"
)

// Outcome records what the gate did with one labeled finding.
type Outcome struct {
	Case       string
	Key        string
	Truth      bool
	Persisted  bool
	Tier       model.Tier
	Bucket     model.Bucket
	Confidence float64
	Reason     string
}

// Report aggregates the gate outcomes of a suite run.
type Report struct {
	Cases    int
	Findings int

	Persisted          int
	TruthTotal         int
	TruthPersisted     int
	AutoMergePersisted int
	AutoMergeCorrect   int
	FalsePersisted     int

	// AutoMergePrecision is the fraction of persisted auto-merge bucket
	// identities that are in the truth set. 1.0 when none were persisted:
	// no merges means no wrong merges.
	AutoMergePrecision float64
	// Recall is the fraction of truth-set identities that were persisted.
	Recall float64
	// PersistRate is persisted over total findings.
	PersistRate float64
	// MeanPersistedConfidence averages confidence over persisted findings.
	MeanPersistedConfidence float64

	Outcomes []Outcome
}

// Run replays every case through extraction, scoring, and the gate with
// the same ordering and Tier-2 cap accounting the pipeline applies.
func Run(suite *Suite, cfg config.ScoringConfig, log *zap.Logger) *Report {
	if log == nil {
		log = zap.L()
	}

	r := &Report{Cases: len(suite.Cases)}
	var confSum float64

	for _, c := range suite.Cases {
		truth := make(map[string]bool, len(c.Truth))
		for _, k := range c.Truth {
			truth[k] = true
		}
		r.TruthTotal += len(c.Truth)

		h := hints.Extract(c.Candidate.candidate())

		type scored struct {
			fx  FindingFixture
			res scoring.Result
		}
		results := make([]scored, 0, len(c.Findings))
		for _, f := range c.Findings {
			results = append(results, scored{fx: f, res: scoring.Evaluate(scoring.Input{
				Hints:     h,
				Facts:     f.facts(),
				Signals:   f.signals(),
				BridgeURL: f.BridgeURL,
			})})
		}

		// Match the pipeline's persistence order: tier, confidence,
		// SERP position, then key.
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i], results[j]
			if a.res.Bridge.Tier != b.res.Bridge.Tier {
				return a.res.Bridge.Tier < b.res.Bridge.Tier
			}
			ac := math.Round(a.res.Confidence * 100)
			bc := math.Round(b.res.Confidence * 100)
			if ac != bc {
				return ac > bc
			}
			ap, bp := serpRank(a.fx.SERPPosition), serpRank(b.fx.SERPPosition)
			if ap != bp {
				return ap < bp
			}
			return a.fx.key() < b.fx.key()
		})

		tier2Used := 0
		for _, s := range results {
			gd := scoring.Gate(scoring.GateInput{
				Platform:           model.Platform(s.fx.Platform),
				Result:             s.res,
				Tier2Used:          tier2Used,
				MinConfidence:      cfg.MinConfidence,
				AutoMergeThreshold: cfg.AutoMergeThreshold,
				Tier2Cap:           cfg.Tier2Cap,
			})
			if gd.Persist && s.res.Bridge.Tier == model.Tier2 {
				tier2Used++
			}

			out := Outcome{
				Case:       c.Name,
				Key:        s.fx.key(),
				Truth:      truth[s.fx.key()],
				Persisted:  gd.Persist,
				Tier:       s.res.Bridge.Tier,
				Bucket:     s.res.Bucket,
				Confidence: s.res.Confidence,
				Reason:     gd.Reason,
			}
			r.Outcomes = append(r.Outcomes, out)
			r.Findings++

			if !gd.Persist {
				continue
			}
			r.Persisted++
			confSum += s.res.Confidence
			if out.Truth {
				r.TruthPersisted++
			} else {
				r.FalsePersisted++
			}
			if s.res.Bucket == model.BucketAutoMerge {
				r.AutoMergePersisted++
				if out.Truth {
					r.AutoMergeCorrect++
				}
			}
		}
	}

	r.AutoMergePrecision = 1.0
	if r.AutoMergePersisted > 0 {
		r.AutoMergePrecision = float64(r.AutoMergeCorrect) / float64(r.AutoMergePersisted)
	}
	r.Recall = 1.0
	if r.TruthTotal > 0 {
		r.Recall = float64(r.TruthPersisted) / float64(r.TruthTotal)
	}
	if r.Findings > 0 {
		r.PersistRate = float64(r.Persisted) / float64(r.Findings)
	}
	if r.Persisted > 0 {
		r.MeanPersistedConfidence = confSum / float64(r.Persisted)
	}

	log.Info("eval suite complete",
		zap.Int("cases", r.Cases),
		zap.Int("findings", r.Findings),
		zap.Int("persisted", r.Persisted),
		zap.Float64("auto_merge_precision", r.AutoMergePrecision),
		zap.Float64("recall", r.Recall))
	return r
}

func serpRank(pos int) int {
	if pos <= 0 {
		return math.MaxInt32
	}
	return pos
}
