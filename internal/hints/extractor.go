// Package hints extracts typed, confidence-tagged hints (name, headline,
// company, location) from the public SERP fields stored with a candidate.
// Extraction is pure: any field may come back absent with confidence 0,
// and no input ever produces an error.
package hints

import (
	"github.com/sells-group/identity-cli/internal/model"
)

// Confidence floors applied when knowledge-graph or answer-box fields
// override a lower-confidence extraction.
const (
	kgFloor        = 0.95
	answerBoxFloor = 0.90

	localeAgreeBonus    = 0.05
	localeAgreeCap      = 0.99
	localeDisagreePen   = 0.20
	localeDisagreeFloor = 0.10
)

// Extract derives the EnrichedHints snapshot for one candidate from its
// stored SERP title, snippet, slug, and metadata blob.
func Extract(c model.Candidate) model.EnrichedHints {
	title := cleanTitle(c.SERPTitle)

	name := nameFromTitle(title, hadLinkedInMarker(c.SERPTitle))
	if !name.Present() {
		name = nameFromSlug(c.LinkedInSlug)
	}

	headline := headlineFromTitle(title)
	company := companyHint(headline.Value, c.SERPSnippet)
	location := locationHint(title, c.SERPSnippet)

	if c.SERPMeta != nil {
		name = applyOverride(name, c.SERPMeta.KnowledgeGraph["name"], model.SourceSERPKnowledgeGraph, kgFloor)
		name = applyOverride(name, c.SERPMeta.AnswerBox["name"], model.SourceSERPAnswerBox, answerBoxFloor)
		company = applyOverride(company, c.SERPMeta.KnowledgeGraph["company"], model.SourceSERPKnowledgeGraph, kgFloor)
		company = applyOverride(company, c.SERPMeta.AnswerBox["company"], model.SourceSERPAnswerBox, answerBoxFloor)
		location = applyOverride(location, c.SERPMeta.KnowledgeGraph["location"], model.SourceSERPKnowledgeGraph, kgFloor)
		location = applyOverride(location, c.SERPMeta.AnswerBox["location"], model.SourceSERPAnswerBox, answerBoxFloor)

		location = adjustForLocale(location, c.SERPMeta.LocaleCountry)
	}

	role := c.Role
	if role == "" {
		role = model.RoleGeneral
	}

	return model.EnrichedHints{
		Name:        name,
		Headline:    headline,
		Location:    location,
		Company:     company,
		LinkedInID:  c.LinkedInSlug,
		LinkedInURL: c.LinkedInURL,
		Role:        role,
	}
}

// applyOverride replaces a hint with a structured-metadata value when the
// metadata is present and the current hint is less confident than the
// metadata's floor.
func applyOverride(h model.Hint, value string, source model.HintSource, floor float64) model.Hint {
	if value == "" {
		return h
	}
	if h.Present() && h.Confidence >= floor {
		return h
	}
	return model.Hint{Value: value, Confidence: floor, Source: source}
}

// adjustForLocale nudges location confidence by whether the LinkedIn
// locale country code agrees with the country implied by the extracted
// location. Unknown countries on either side leave the hint untouched.
func adjustForLocale(h model.Hint, locale string) model.Hint {
	if !h.Present() || locale == "" {
		return h
	}
	cc := countryCodeOf(h.Value)
	if cc == "" {
		return h
	}
	if cc == normalizeCountryCode(locale) {
		h.Confidence += localeAgreeBonus
		if h.Confidence > localeAgreeCap {
			h.Confidence = localeAgreeCap
		}
	} else {
		h.Confidence -= localeDisagreePen
		if h.Confidence < localeDisagreeFloor {
			h.Confidence = localeDisagreeFloor
		}
	}
	return h
}
