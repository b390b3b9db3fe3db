package scoring

import "github.com/sells-group/identity-cli/internal/model"

// strictTier1Boost is added to the confidence of Tier-1 bridges with no
// team-page involvement and no contradiction.
const strictTier1Boost = 0.08

// Input bundles everything the evaluator needs for one profile.
type Input struct {
	Hints     model.EnrichedHints
	Facts     ProfileFacts
	Signals   []model.Signal
	BridgeURL string
}

// Result is the full scoring outcome for one profile: the component
// breakdown, the classified bridge, the final confidence after floors
// and boosts, and its bucket.
type Result struct {
	Breakdown model.ScoreBreakdown
	Bridge    model.BridgeDetection

	// Confidence is the persisted value: the breakdown total raised to
	// the tier floor, plus the strict Tier-1 boost when it applies.
	Confidence   float64
	Bucket       model.Bucket
	BoostApplied bool

	HasContradiction  bool
	ContradictionNote string
}

// Evaluate runs the whole static scoring path: signal classification,
// component scoring, contradiction detection, tier floor, boost, bucket.
// It is deterministic for equal inputs.
func Evaluate(in Input) Result {
	bridge := DetectBridge(in.Signals, in.BridgeURL)
	breakdown := Score(in.Hints, in.Facts, bridge)
	contradicted, note := DetectContradiction(in.Hints, in.Facts, bridge)

	conf := breakdown.Total
	if conf < bridge.ConfidenceFloor {
		conf = bridge.ConfidenceFloor
	}

	strict := bridge.Tier == model.Tier1 &&
		!bridge.HasSignal(model.SignalLinkedInURLInTeamPage) &&
		!contradicted
	if strict {
		conf = clamp01(conf + strictTier1Boost)
	}

	return Result{
		Breakdown:         breakdown,
		Bridge:            bridge,
		Confidence:        conf,
		Bucket:            BucketFor(conf),
		BoostApplied:      strict,
		HasContradiction:  contradicted,
		ContradictionNote: note,
	}
}
