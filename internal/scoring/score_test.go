package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-cli/internal/model"
)

func strongHints() model.EnrichedHints {
	return model.EnrichedHints{
		Name:        model.Hint{Value: "Jane Doe", Confidence: 0.95, Source: model.SourceSERPTitle},
		Company:     model.Hint{Value: "Acme", Confidence: 0.90, Source: model.SourceHeadlineParse},
		Location:    model.Hint{Value: "Austin, TX", Confidence: 0.85, Source: model.SourceSERPSnippet},
		LinkedInID:  "jane-doe-12345",
		LinkedInURL: "https://linkedin.com/in/jane-doe-12345",
		Role:        model.RoleEngineer,
	}
}

func richGitHubFacts() ProfileFacts {
	return ProfileFacts{
		Platform:    model.PlatformGitHub,
		Handle:      "janedoe",
		DisplayName: "Jane Doe",
		Bio:         "Platform engineer. Opinions my own.",
		Company:     "Acme",
		Location:    "Austin, TX",
		Followers:   120,
		PublicRepos: 34,
		ViaSearch:   true,
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jose alvareznunez", Normalize("José Álvarez-Núñez"))
	assert.Equal(t, "jane doe", Normalize("  Jane   DOE "))
	assert.Equal(t, "", Normalize("---"))
}

func TestNameSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, nameSimilarity("Jane Doe", "Jane Doe"), 1e-9)
	assert.InDelta(t, 1.0, nameSimilarity("Jane Doe", "jané doe"), 1e-9)
	// Shared first name only: 1/3 Jaccard plus the first-name bonus.
	assert.InDelta(t, 1.0/3+0.10, nameSimilarity("Jane Doe", "Jane Smith"), 1e-9)
	assert.Zero(t, nameSimilarity("Jane Doe", "Rajesh Kumar"))
}

func TestBridgeComponent(t *testing.T) {
	bio := DetectBridge([]model.Signal{model.SignalLinkedInURLInBio}, "")
	assert.InDelta(t, 0.40, bridgeComponent(ProfileFacts{}, bio), 1e-9)

	team := DetectBridge([]model.Signal{model.SignalLinkedInURLInTeamPage}, "")
	assert.InDelta(t, 0.25, bridgeComponent(ProfileFacts{}, team), 1e-9)

	commits := DetectBridge([]model.Signal{model.SignalCommitEmailDomain}, "")
	assert.InDelta(t, 0.25, bridgeComponent(ProfileFacts{CommitEmailMatches: 2}, commits), 1e-9)
	// Commit count contribution saturates at three.
	assert.InDelta(t, 0.30, bridgeComponent(ProfileFacts{CommitEmailMatches: 9}, commits), 1e-9)

	domain := DetectBridge([]model.Signal{model.SignalVerifiedDomain}, "")
	assert.InDelta(t, 0.25, bridgeComponent(ProfileFacts{}, domain), 1e-9)

	page := DetectBridge([]model.Signal{model.SignalLinkedInURLInPage}, "")
	assert.InDelta(t, 0.40, bridgeComponent(ProfileFacts{}, page), 1e-9)

	roster := DetectBridge([]model.Signal{model.SignalLinkedInURLInPage, model.SignalConferenceSpeaker}, "")
	assert.InDelta(t, 0.25, bridgeComponent(ProfileFacts{}, roster), 1e-9)
}

func TestEvaluate_ConferenceRosterLandsInSuggest(t *testing.T) {
	r := Evaluate(Input{
		Hints: strongHints(),
		Facts: ProfileFacts{
			Platform:    model.PlatformGitHub,
			Handle:      "alice",
			DisplayName: "Jane Doe",
			Bio:         "Speaking at GopherCon about platform engineering at Acme.",
			Company:     "Acme",
			ViaSearch:   true,
		},
		Signals:   []model.Signal{model.SignalLinkedInURLInPage, model.SignalConferenceSpeaker},
		BridgeURL: "https://gophercon.example/speakers",
	})

	assert.Equal(t, model.Tier2, r.Bridge.Tier)
	assert.False(t, r.BoostApplied)
	assert.Equal(t, model.BucketSuggest, r.Bucket)
}

func TestHandleComponent(t *testing.T) {
	h := strongHints()

	cases := []struct {
		handle string
		want   float64
	}{
		{"jane-doe-12345", 1.0},
		{"jane-doe", 1.0},
		{"janedoe", 0.9},
		{"jane.doe.dev", 0.8},
		{"jdoe", 0.7},
		{"doe42", 0.6},
		{"janex", 0.4},
		{"kernelhacker", 0},
	}
	for _, tc := range cases {
		f := ProfileFacts{Handle: tc.handle, ViaSearch: true}
		assert.InDelta(t, tc.want, handleComponent(h, f), 1e-9, "handle %q", tc.handle)
	}

	// Profiles reached through an explicit link score no handle credit.
	f := ProfileFacts{Handle: "jane-doe", ViaSearch: false}
	assert.Zero(t, handleComponent(h, f))
}

func TestCompanyComponent(t *testing.T) {
	h := strongHints()
	assert.InDelta(t, 1.0, companyComponent(h, ProfileFacts{Company: "Acme Corp"}), 1e-9)
	assert.InDelta(t, 1.0, companyComponent(h, ProfileFacts{Company: "@acme"}), 1e-9)
	assert.Zero(t, companyComponent(h, ProfileFacts{Company: "Globex"}))

	h.Company.Value = "Acme Labs"
	assert.InDelta(t, 0.8, companyComponent(h, ProfileFacts{Company: "Beta Labs"}), 1e-9)
}

func TestLocationComponent(t *testing.T) {
	h := strongHints()
	assert.InDelta(t, 1.0, locationComponent(h, ProfileFacts{Location: "Austin, TX, USA"}), 1e-9)
	// Different spellings, same resolved country.
	assert.InDelta(t, 0.8, locationComponent(h, ProfileFacts{Location: "Austin, Texas"}), 1e-9)
	assert.Zero(t, locationComponent(h, ProfileFacts{Location: "Berlin, Germany"}))
}

func TestScore_RichTier1Profile(t *testing.T) {
	bridge := DetectBridge([]model.Signal{model.SignalLinkedInURLInBio}, "https://github.com/janedoe")
	bd := Score(strongHints(), richGitHubFacts(), bridge)

	assert.InDelta(t, 0.40, bd.BridgeWeight, 1e-9)
	assert.InDelta(t, 0.30, bd.NameMatch, 1e-9)
	assert.InDelta(t, 0.27, bd.HandleMatch, 1e-9)
	assert.InDelta(t, 0.15, bd.CompanyMatch, 1e-9)
	assert.InDelta(t, 0.10, bd.LocationMatch, 1e-9)
	assert.InDelta(t, 0.10, bd.ProfileCompleteness, 1e-9)
	// Component sum exceeds 1; total clamps.
	assert.InDelta(t, 1.0, bd.Total, 1e-9)
	assert.Equal(t, ScoringVersion, bd.ScoringVersion)
}

func TestEvaluate_SparseTier1GetsFloorAndBoost(t *testing.T) {
	r := Evaluate(Input{
		Hints:   strongHints(),
		Facts:   ProfileFacts{Platform: model.PlatformGitHub, Handle: "unrelated", ViaSearch: true},
		Signals: []model.Signal{model.SignalLinkedInURLInBio},
	})

	assert.True(t, r.BoostApplied)
	assert.InDelta(t, tier1Floor+strictTier1Boost, r.Confidence, 1e-9)
	assert.Equal(t, model.BucketAutoMerge, r.Bucket)
}

func TestEvaluate_ContradictionSuppressesBoost(t *testing.T) {
	facts := ProfileFacts{
		Platform:    model.PlatformGitHub,
		Handle:      "rkumar",
		DisplayName: "Rajesh Kumar",
		ViaSearch:   true,
	}
	r := Evaluate(Input{
		Hints:   strongHints(),
		Facts:   facts,
		Signals: []model.Signal{model.SignalLinkedInURLInBio},
	})

	assert.True(t, r.HasContradiction)
	assert.Contains(t, r.ContradictionNote, "Rajesh Kumar")
	assert.False(t, r.BoostApplied)
	// Floor still applies; bucket lands in suggest, not auto-merge.
	assert.InDelta(t, tier1Floor, r.Confidence, 1e-9)
	assert.Equal(t, model.BucketSuggest, r.Bucket)
}

func TestEvaluate_CountryDisagreementFlagged(t *testing.T) {
	facts := ProfileFacts{
		Platform:    model.PlatformGitHub,
		DisplayName: "Jane Doe",
		Location:    "Berlin, Germany",
		ViaSearch:   true,
	}
	r := Evaluate(Input{Hints: strongHints(), Facts: facts})
	assert.True(t, r.HasContradiction)
	assert.Contains(t, r.ContradictionNote, "disagrees")
}

func TestEvaluate_TierMonotonicity(t *testing.T) {
	h := strongHints()
	f := ProfileFacts{Platform: model.PlatformGitHub, ViaSearch: true}

	tier1 := Evaluate(Input{Hints: h, Facts: f, Signals: []model.Signal{model.SignalLinkedInURLInBio}})
	tier2 := Evaluate(Input{Hints: h, Facts: f, Signals: []model.Signal{model.SignalLinkedInURLInTeamPage}})
	tier3 := Evaluate(Input{Hints: h, Facts: f})

	assert.Greater(t, tier1.Confidence, tier2.Confidence)
	assert.Greater(t, tier2.Confidence, tier3.Confidence)
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := Input{
		Hints:   strongHints(),
		Facts:   richGitHubFacts(),
		Signals: []model.Signal{model.SignalCommitEmailDomain, model.SignalLinkedInURLInBio},
	}
	first := Evaluate(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Evaluate(in))
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, model.BucketAutoMerge, BucketFor(0.90))
	assert.Equal(t, model.BucketSuggest, BucketFor(0.70))
	assert.Equal(t, model.BucketLow, BucketFor(0.35))
	assert.Equal(t, model.BucketRejected, BucketFor(0.34))
}

func TestShadowScore_MatchesStaticAtFullHintConfidence(t *testing.T) {
	h := strongHints()
	h.Name.Confidence = 1.0
	h.Company.Confidence = 1.0
	h.Location.Confidence = 1.0
	f := richGitHubFacts()
	b := DetectBridge([]model.Signal{model.SignalLinkedInURLInBio}, "")

	static := Score(h, f, b).Total
	assert.InDelta(t, static, ShadowScore(h, f, b), 1e-9)
}

func TestShadowScore_DiscountsShakyHints(t *testing.T) {
	h := strongHints()
	h.Name.Confidence = 0.4
	h.Company.Confidence = 0.4
	h.Location.Confidence = 0.4
	f := richGitHubFacts()
	b := DetectBridge(nil, "")

	assert.Less(t, ShadowScore(h, f, b), Score(h, f, b).Total)
}
