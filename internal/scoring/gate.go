package scoring

import (
	"fmt"

	"github.com/sells-group/identity-cli/internal/model"
)

// Gate defaults, overridable through configuration.
const (
	DefaultMinConfidence      = 0.25
	DefaultAutoMergeThreshold = 0.90
	DefaultTier2Cap           = 3
)

// GateInput carries one evaluated identity plus the per-run state the
// gate needs: how many Tier-2 identities this run already persisted.
type GateInput struct {
	Platform  model.Platform
	Result    Result
	Tier2Used int

	MinConfidence      float64
	AutoMergeThreshold float64
	Tier2Cap           int
}

// GateDecision says whether the identity is persisted and why (or why
// not). Reason strings are stored verbatim on the identity and in the
// run trace.
type GateDecision struct {
	Persist bool
	Reason  string
}

// Gate applies the persistence rules to one evaluated identity. Dropped
// identities still appear in the run trace with the drop reason.
func Gate(in GateInput) GateDecision {
	minConf := in.MinConfidence
	if minConf == 0 {
		minConf = DefaultMinConfidence
	}
	mergeAt := in.AutoMergeThreshold
	if mergeAt == 0 {
		mergeAt = DefaultAutoMergeThreshold
	}
	tier2Cap := in.Tier2Cap
	if tier2Cap == 0 {
		tier2Cap = DefaultTier2Cap
	}

	r := in.Result
	bd := r.Breakdown

	// GitHub results below Tier 1 need more than a name to persist:
	// common names produce plausible-looking shells.
	if in.Platform == model.PlatformGitHub && r.Bridge.Tier != model.Tier1 &&
		bd.BridgeWeight == 0 && bd.HandleMatch < 0.20 &&
		bd.CompanyMatch == 0 && bd.LocationMatch == 0 {
		return GateDecision{Reason: "GitHub name-only match without corroboration"}
	}

	switch r.Bridge.Tier {
	case model.Tier1:
		if r.Confidence >= mergeAt {
			return GateDecision{Persist: true, Reason: fmt.Sprintf("Tier-1 bridge, auto-merge eligible (%.2f)", r.Confidence)}
		}
		return GateDecision{Persist: true, Reason: fmt.Sprintf("Tier-1 bridge (%.2f)", r.Confidence)}

	case model.Tier2:
		if in.Tier2Used >= tier2Cap {
			return GateDecision{Reason: fmt.Sprintf("Cap exceeded (%d/%d)", tier2Cap, tier2Cap)}
		}
		return GateDecision{Persist: true, Reason: fmt.Sprintf("Tier-2 bridge (%d/%d)", in.Tier2Used+1, tier2Cap)}

	default:
		if r.Confidence < minConf {
			return GateDecision{Reason: fmt.Sprintf("Below minimum confidence (%.2f < %.2f)", r.Confidence, minConf)}
		}
		if !corroborated(r) {
			return GateDecision{Reason: "Speculative match without corroboration"}
		}
		return GateDecision{Persist: true, Reason: fmt.Sprintf("Tier-3 speculative (%.2f)", r.Confidence)}
	}
}

// corroborated reports whether a Tier-3 identity has a second signal
// beyond the bare name: bridge evidence, a convincing handle, or a name
// match backed by company, location, or any detected signal.
func corroborated(r Result) bool {
	bd := r.Breakdown
	if bd.BridgeWeight > 0 || bd.HandleMatch >= 0.20 {
		return true
	}
	if bd.NameMatch >= 0.15 {
		if bd.CompanyMatch > 0 || bd.LocationMatch > 0 || !r.Bridge.HadNoSignals {
			return true
		}
	}
	return false
}
