package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-cli/internal/model"
)

func candidateWith(title, snippet, slug string) model.Candidate {
	return model.Candidate{
		LinkedInSlug: slug,
		LinkedInURL:  "https://linkedin.com/in/" + slug,
		SERPTitle:    title,
		SERPSnippet:  snippet,
	}
}

func TestExtract_TitleTemplate(t *testing.T) {
	c := candidateWith("Jane Doe - Senior SWE at Acme | LinkedIn", "", "jane-doe-12345")
	h := Extract(c)

	assert.Equal(t, "Jane Doe", h.Name.Value)
	assert.Equal(t, 0.95, h.Name.Confidence)
	assert.Equal(t, model.SourceSERPTitle, h.Name.Source)

	assert.Equal(t, "Senior SWE at Acme", h.Headline.Value)
	assert.Equal(t, "Acme", h.Company.Value)
	assert.Equal(t, 0.95, h.Company.Confidence) // known brand beats plain "at X"
	assert.Equal(t, "jane-doe-12345", h.LinkedInID)
	assert.Equal(t, model.RoleGeneral, h.Role)
}

func TestExtract_NameConfidenceTracksTitleTemplate(t *testing.T) {
	// Marker without a delimiter, delimiter without a marker, and a bare
	// name each step the confidence down from the full template.
	tests := []struct {
		title string
		conf  float64
	}{
		{"Jane Doe - Senior SWE at Acme | LinkedIn", 0.95},
		{"Jane Doe | LinkedIn", 0.85},
		{"Jane Doe - Acme Corp", 0.85},
		{"Jane Doe", 0.75},
	}
	for _, tc := range tests {
		h := Extract(candidateWith(tc.title, "", "jane-doe-12345"))
		assert.Equal(t, "Jane Doe", h.Name.Value, tc.title)
		assert.InDelta(t, tc.conf, h.Name.Confidence, 1e-9, tc.title)
	}
}

func TestExtract_NotificationBadgeStripped(t *testing.T) {
	c := candidateWith("(3) Jane Doe - CTO | LinkedIn", "", "jane-doe")
	h := Extract(c)
	assert.Equal(t, "Jane Doe", h.Name.Value)
}

func TestExtract_LastFirstCommaReversed(t *testing.T) {
	c := candidateWith("Doe, Jane - Acme Corp | LinkedIn", "", "jane-doe")
	h := Extract(c)
	assert.Equal(t, "Jane Doe", h.Name.Value)
}

func TestExtract_TitleWithJobKeywordFallsBackToSlug(t *testing.T) {
	c := candidateWith("Senior Engineer Profiles | LinkedIn", "", "j-smith-7788")
	h := Extract(c)

	// "7788" suffix dropped, two tokens capitalised.
	assert.Equal(t, "J Smith", h.Name.Value)
	assert.Equal(t, model.SourceURLSlug, h.Name.Source)
	assert.Equal(t, 0.50, h.Name.Confidence)
}

func TestExtract_SlugCredentialTail(t *testing.T) {
	c := candidateWith("", "", "maria-garcia-phd-8821")
	h := Extract(c)
	assert.Equal(t, "Maria Garcia", h.Name.Value)
}

func TestNameFromSlug_RequiresHyphen(t *testing.T) {
	h := nameFromSlug("janedoe42")
	assert.False(t, h.Present())
	assert.Equal(t, 0.0, h.Confidence)
}

func TestNameFromSlug_ThreeTokens(t *testing.T) {
	h := nameFromSlug("jane-van-doe")
	assert.Equal(t, "Jane Van Doe", h.Value)
	assert.Equal(t, 0.60, h.Confidence)
}

func TestStripSlugSuffix(t *testing.T) {
	assert.Equal(t, "jane-doe", StripSlugSuffix("jane-doe-12345"))
	assert.Equal(t, "jane-doe", StripSlugSuffix("jane-doe-a1b2c3"))
	assert.Equal(t, "jane-doe", StripSlugSuffix("jane-doe"))
	// The last remaining token is never stripped.
	assert.Equal(t, "12345", StripSlugSuffix("12345"))
}

func TestCompanyHint_Patterns(t *testing.T) {
	tests := []struct {
		headline string
		want     string
		conf     float64
	}{
		{"Senior SWE at Initech", "Initech", 0.90},
		{"Engineering @ Google", "Google", 0.95},
		{"Platform team · Wayne Industries LLC", "Wayne Industries LLC", 0.85},
		{"Researcher at The University of Somewhere", "", 0},
	}
	for _, tc := range tests {
		h := companyHint(tc.headline, "")
		if tc.want == "" {
			assert.False(t, h.Present(), tc.headline)
			continue
		}
		assert.Equal(t, tc.want, h.Value, tc.headline)
		assert.Equal(t, tc.conf, h.Confidence, tc.headline)
	}
}

func TestLocationHint_Forms(t *testing.T) {
	h := locationHint("", "Location: Austin, TX. 500+ connections")
	assert.Equal(t, "Austin, TX", h.Value)
	assert.Equal(t, 0.95, h.Confidence)

	h = locationHint("", "Works in Denver, CO on infrastructure")
	assert.Equal(t, "Denver, CO", h.Value)
	assert.Equal(t, 0.85, h.Confidence)

	h = locationHint("Jane · London · Acme", "")
	assert.Equal(t, "London", h.Value)
	assert.Equal(t, 0.70, h.Confidence)

	h = locationHint("", "designer based in Berlin, happy to chat")
	assert.Equal(t, "Berlin", h.Value)

	h = locationHint("", "no geography here")
	assert.False(t, h.Present())
}

func TestExtract_KnowledgeGraphOverride(t *testing.T) {
	c := candidateWith("J. S. | LinkedIn", "", "j-smith-7788")
	c.SERPMeta = &model.SERPMetadata{
		KnowledgeGraph: map[string]string{"company": "Acme"},
	}
	h := Extract(c)
	assert.Equal(t, "Acme", h.Company.Value)
	assert.Equal(t, 0.95, h.Company.Confidence)
	assert.Equal(t, model.SourceSERPKnowledgeGraph, h.Company.Source)
}

func TestExtract_LocaleAgreementAdjustment(t *testing.T) {
	c := candidateWith("Jane Doe - Eng | LinkedIn", "Location: Berlin", "jane-doe")
	c.SERPMeta = &model.SERPMetadata{LocaleCountry: "de"}
	h := Extract(c)
	// Agreement bonus capped at 0.99.
	assert.InDelta(t, 0.99, h.Location.Confidence, 1e-9)

	c.SERPMeta.LocaleCountry = "us"
	h = Extract(c)
	assert.InDelta(t, 0.95-0.20, h.Location.Confidence, 1e-9)
}

func TestExtract_LocaleFloorAndCap(t *testing.T) {
	c := candidateWith("Jane Doe - Eng | LinkedIn", "works near London somewhere", "jane-doe")
	c.SERPMeta = &model.SERPMetadata{LocaleCountry: "us"}
	h := Extract(c)
	if h.Location.Present() {
		assert.GreaterOrEqual(t, h.Location.Confidence, 0.10)
	}
}

func TestExtract_EmptyInputsNeverPanic(t *testing.T) {
	h := Extract(model.Candidate{})
	assert.False(t, h.Name.Present())
	assert.False(t, h.Company.Present())
	assert.False(t, h.Location.Present())
	assert.Equal(t, 0.0, h.Name.Confidence)
}

func TestExtract_Deterministic(t *testing.T) {
	c := candidateWith("Jane Doe - Senior SWE at Acme | LinkedIn", "Location: Austin, TX", "jane-doe-12345")
	first := Extract(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(c))
	}
}
