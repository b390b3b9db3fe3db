package scoring

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
)

// Component weights. Components are computed in [0,1] and scaled by
// these before summing.
const (
	bridgeCap          = 0.40
	nameWeight         = 0.30
	handleWeight       = 0.30
	companyWeight      = 0.15
	locationWeight     = 0.10
	completenessGitHub = 0.10
	completenessOther  = 0.05
)

// ProfileFacts is the platform-profile view the scorer works from. A
// platform adapter fills in whatever its API or page exposes; zero
// values simply contribute nothing.
type ProfileFacts struct {
	Platform    model.Platform
	Handle      string
	DisplayName string
	Bio         string
	Company     string
	Location    string
	BlogURL     string
	Followers   int
	PublicRepos int

	// CommitEmailMatches counts public commits whose author email ties
	// back to the candidate's company domain or slug.
	CommitEmailMatches int

	// ViaSearch is false when the profile was reached by following an
	// explicit bridge URL rather than a search hit; handle similarity is
	// only meaningful for searched profiles.
	ViaSearch bool
}

// Score computes the six-component weighted breakdown for a profile
// against the candidate's hints. Total is the clamped component sum
// before tier floors or boosts.
func Score(h model.EnrichedHints, f ProfileFacts, b model.BridgeDetection) model.ScoreBreakdown {
	bd := model.ScoreBreakdown{
		BridgeWeight:        bridgeComponent(f, b),
		NameMatch:           nameWeight * nameComponent(h, f),
		HandleMatch:         handleWeight * handleComponent(h, f),
		CompanyMatch:        companyWeight * companyComponent(h, f),
		LocationMatch:       locationWeight * locationComponent(h, f),
		ProfileCompleteness: completenessWeight(f.Platform) * completenessComponent(f),
		ScoringVersion:      ScoringVersion,
	}
	bd.Total = clamp01(bd.BridgeWeight + bd.NameMatch + bd.HandleMatch +
		bd.CompanyMatch + bd.LocationMatch + bd.ProfileCompleteness)
	return bd
}

// BucketFor discretises a final confidence into its band.
func BucketFor(confidence float64) model.Bucket {
	switch {
	case confidence >= 0.90:
		return model.BucketAutoMerge
	case confidence >= 0.70:
		return model.BucketSuggest
	case confidence >= 0.35:
		return model.BucketLow
	default:
		return model.BucketRejected
	}
}

// bridgeComponent scores the bridge evidence itself. Explicit profile
// links are worth the full cap; multi-person listings (team pages,
// conference rosters) and verified domains less; commit-email evidence
// scales with the number of matching commits.
func bridgeComponent(f ProfileFacts, b model.BridgeDetection) float64 {
	w := 0.0
	switch {
	case b.HasSignal(model.SignalLinkedInURLInBio) ||
		b.HasSignal(model.SignalLinkedInURLInBlog) ||
		b.HasSignal(model.SignalMutualReference):
		w = bridgeCap
	case b.HasSignal(model.SignalLinkedInURLInPage):
		w = bridgeCap
		if b.HasSignal(model.SignalConferenceSpeaker) {
			w = 0.25
		}
	case b.HasSignal(model.SignalLinkedInURLInTeamPage) ||
		b.HasSignal(model.SignalVerifiedDomain):
		w = 0.25
	}

	if b.HasSignal(model.SignalCommitEmailDomain) {
		n := f.CommitEmailMatches
		if n < 1 {
			n = 1
		}
		if n > 3 {
			n = 3
		}
		if ce := 0.15 + 0.05*float64(n); ce > w {
			w = ce
		}
	}

	if w > bridgeCap {
		w = bridgeCap
	}
	return w
}

func nameComponent(h model.EnrichedHints, f ProfileFacts) float64 {
	if !h.Name.Present() || f.DisplayName == "" {
		return 0
	}
	return nameSimilarity(h.Name.Value, f.DisplayName)
}

// handleComponent compares the cleaned LinkedIn slug against the
// platform handle. Searched profiles only: for profiles reached through
// an explicit link the handle carries no independent information.
func handleComponent(h model.EnrichedHints, f ProfileFacts) float64 {
	if !f.ViaSearch || f.Handle == "" || h.LinkedInID == "" {
		return 0
	}

	handle := strings.ToLower(f.Handle)
	raw := strings.ToLower(h.LinkedInID)
	clean := strings.ToLower(hints.StripSlugSuffix(h.LinkedInID))

	if handle == raw || handle == clean {
		return 1.0
	}
	if compact(handle) == compact(clean) {
		return 0.9
	}

	tokens := strings.Split(clean, "-")
	first, last := "", ""
	if len(tokens) > 0 {
		first = tokens[0]
		last = tokens[len(tokens)-1]
	}
	if first == "" || last == "" || first == last {
		return 0
	}

	switch {
	case strings.Contains(handle, first) && strings.Contains(handle, last):
		return 0.8
	case handle == first[:1]+last || handle == first+last[:1]:
		return 0.7
	case strings.Contains(handle, last):
		return 0.6
	case strings.Contains(handle, first):
		return 0.4
	}
	return 0
}

func companyComponent(h model.EnrichedHints, f ProfileFacts) float64 {
	if !h.Company.Present() || f.Company == "" {
		return 0
	}
	want := Normalize(h.Company.Value)
	got := Normalize(strings.TrimPrefix(f.Company, "@"))
	if want == "" || got == "" {
		return 0
	}
	if strings.Contains(got, want) || strings.Contains(want, got) {
		return 1.0
	}
	if tokenJaccard(want, got) > 0 {
		return 0.8
	}
	return 0
}

func locationComponent(h model.EnrichedHints, f ProfileFacts) float64 {
	if !h.Location.Present() || f.Location == "" {
		return 0
	}
	want := Normalize(h.Location.Value)
	got := Normalize(f.Location)
	if want == "" || got == "" {
		return 0
	}
	if strings.Contains(got, want) || strings.Contains(want, got) {
		return 1.0
	}
	// Same country resolved through the abbreviation tables counts as a
	// partial match: "SF Bay Area" vs "San Francisco, CA".
	wcc := hints.CountryCode(h.Location.Value)
	gcc := hints.CountryCode(f.Location)
	if wcc != "" && wcc == gcc {
		return 0.8
	}
	if tokenJaccard(want, got) > 0 {
		return 0.5
	}
	return 0
}

// completenessComponent rewards populated profiles; empty shells score
// zero here no matter how well the name lines up.
func completenessComponent(f ProfileFacts) float64 {
	score := 0.0
	if f.Followers > 10 {
		score += 0.3
	}
	if f.PublicRepos > 0 {
		score += 0.3
	}
	if len(f.Bio) > 10 {
		score += 0.2
	}
	if f.Company != "" {
		score += 0.2
	}
	return score
}

func completenessWeight(p model.Platform) float64 {
	if p == model.PlatformGitHub {
		return completenessGitHub
	}
	return completenessOther
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || r == '.' {
			return -1
		}
		return r
	}, s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
