package scoring

import (
	"sort"

	"github.com/sells-group/identity-cli/internal/model"
)

// Confidence floors by tier. A persisted identity never carries a
// confidence below its tier's floor.
const (
	tier1Floor = 0.85
	tier2Floor = 0.50
	tier3Floor = 0.00
)

// tier1Signals are explicit, near-unforgeable links between the two
// profiles. Any one of them classifies the bridge as Tier 1.
var tier1Signals = map[model.Signal]bool{
	model.SignalLinkedInURLInBio:  true,
	model.SignalLinkedInURLInBlog: true,
	model.SignalLinkedInURLInPage: true,
	model.SignalMutualReference:   true,
}

// tier2Signals are strong circumstantial evidence requiring human review.
var tier2Signals = map[model.Signal]bool{
	model.SignalLinkedInURLInTeamPage: true,
	model.SignalReverseLinkHintMatch:  true,
	model.SignalCommitEmailDomain:     true,
	model.SignalCrossPlatformHandle:   true,
	model.SignalVerifiedDomain:        true,
	model.SignalEmailInPublicPage:     true,
	model.SignalConferenceSpeaker:     true,
}

// signalRank fixes the display and dedupe order: strongest first.
var signalRank = map[model.Signal]int{
	model.SignalLinkedInURLInBio:      0,
	model.SignalLinkedInURLInBlog:     1,
	model.SignalLinkedInURLInPage:     2,
	model.SignalMutualReference:       3,
	model.SignalLinkedInURLInTeamPage: 4,
	model.SignalCommitEmailDomain:     5,
	model.SignalCrossPlatformHandle:   6,
	model.SignalVerifiedDomain:        7,
	model.SignalEmailInPublicPage:     8,
	model.SignalConferenceSpeaker:     9,
	model.SignalReverseLinkHintMatch:  10,
	model.SignalNone:                  11,
}

// DetectBridge classifies collected signals into a bridge tier. The
// first matching tier rule wins: any Tier-1 signal makes the bridge
// Tier 1 regardless of what else is present.
func DetectBridge(signals []model.Signal, bridgeURL string) model.BridgeDetection {
	uniq := dedupeSignals(signals)

	det := model.BridgeDetection{
		Tier:      model.Tier3,
		Signals:   uniq,
		BridgeURL: bridgeURL,
	}

	for _, s := range uniq {
		if tier1Signals[s] {
			det.Tier = model.Tier1
			break
		}
		if tier2Signals[s] && det.Tier == model.Tier3 {
			det.Tier = model.Tier2
		}
	}

	// A page quote on a conference roster is a multi-person listing, the
	// same class of evidence as a team page: the page names the person
	// without being theirs.
	if det.Tier == model.Tier1 && rosterPageOnly(uniq) {
		det.Tier = model.Tier2
	}

	if len(uniq) == 0 || (len(uniq) == 1 && uniq[0] == model.SignalNone) {
		det.Signals = []model.Signal{model.SignalNone}
		det.HadNoSignals = true
		det.Tier = model.Tier3
	}

	switch det.Tier {
	case model.Tier1:
		det.ConfidenceFloor = tier1Floor
		det.AutoMergeEligible = true
	case model.Tier2:
		det.ConfidenceFloor = tier2Floor
	default:
		det.ConfidenceFloor = tier3Floor
	}

	return det
}

// rosterPageOnly reports whether the page-quote signal came from a
// conference roster with no profile-level Tier-1 signal backing it up.
func rosterPageOnly(signals []model.Signal) bool {
	speaker, page, profile := false, false, false
	for _, s := range signals {
		switch {
		case s == model.SignalConferenceSpeaker:
			speaker = true
		case s == model.SignalLinkedInURLInPage:
			page = true
		case tier1Signals[s]:
			profile = true
		}
	}
	return speaker && page && !profile
}

// dedupeSignals drops duplicates and the "none" placeholder when real
// signals are present, and sorts by fixed rank so detection output is
// stable across runs.
func dedupeSignals(signals []model.Signal) []model.Signal {
	seen := make(map[model.Signal]bool, len(signals))
	var out []model.Signal
	for _, s := range signals {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) > 1 {
		filtered := out[:0]
		for _, s := range out {
			if s != model.SignalNone {
				filtered = append(filtered, s)
			}
		}
		out = filtered
	}
	sort.Slice(out, func(i, j int) bool {
		return signalRank[out[i]] < signalRank[out[j]]
	})
	return out
}

// explicitLink reports whether the detection carries an explicit
// LinkedIn-URL class signal, the kind a contradiction can argue against.
func explicitLink(b model.BridgeDetection) bool {
	return b.HasSignal(model.SignalLinkedInURLInBio) ||
		b.HasSignal(model.SignalLinkedInURLInBlog) ||
		b.HasSignal(model.SignalLinkedInURLInPage) ||
		b.HasSignal(model.SignalLinkedInURLInTeamPage) ||
		b.HasSignal(model.SignalMutualReference)
}
