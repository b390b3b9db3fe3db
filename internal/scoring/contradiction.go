package scoring

import (
	"fmt"

	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
)

// contradictionNameCeiling: below this unweighted name similarity an
// explicitly-linked profile is flagged rather than trusted.
const contradictionNameCeiling = 0.20

// DetectContradiction flags identities where the evidence argues with
// itself. A contradiction never deletes the identity; it suppresses the
// strict-bridge boost and surfaces a note for the reviewer.
func DetectContradiction(h model.EnrichedHints, f ProfileFacts, b model.BridgeDetection) (bool, string) {
	if h.Name.Present() && f.DisplayName != "" && explicitLink(b) {
		if sim := nameSimilarity(h.Name.Value, f.DisplayName); sim < contradictionNameCeiling {
			return true, fmt.Sprintf("profile name %q does not resemble candidate name %q despite explicit link",
				f.DisplayName, h.Name.Value)
		}
	}

	if h.Location.Present() && f.Location != "" {
		want := hints.CountryCode(h.Location.Value)
		got := hints.CountryCode(f.Location)
		if want != "" && got != "" && want != got {
			return true, fmt.Sprintf("profile country %q disagrees with candidate country %q", got, want)
		}
	}

	return false, ""
}
