package scoring

import "github.com/sells-group/identity-cli/internal/model"

// ShadowVersion tags the dynamic scorer variant that runs alongside the
// static one for comparison. Shadow scores are recorded in the run
// trace only; they never influence gating or persistence.
const ShadowVersion = "dynamic-v1"

// ShadowScore recomputes the confidence with hint-quality weighting:
// the name, company, and location components are scaled by the
// confidence of the hint they matched against, so a match on a shaky
// hint counts for less.
func ShadowScore(h model.EnrichedHints, f ProfileFacts, b model.BridgeDetection) float64 {
	total := bridgeComponent(f, b) +
		nameWeight*nameComponent(h, f)*h.Name.Confidence +
		handleWeight*handleComponent(h, f) +
		companyWeight*companyComponent(h, f)*h.Company.Confidence +
		locationWeight*locationComponent(h, f)*h.Location.Confidence +
		completenessWeight(f.Platform)*completenessComponent(f)

	conf := clamp01(total)
	if conf < b.ConfidenceFloor {
		conf = b.ConfidenceFloor
	}
	return conf
}
