package hints

import (
	"regexp"
	"strings"

	"github.com/sells-group/identity-cli/internal/model"
)

// atPattern captures "at X" / "@ X" company phrasing, Unicode-aware.
var atPattern = regexp.MustCompile(`(?:\bat\s+|@\s*)([\p{L}][\p{L}\p{N}&.\-' ]{1,40})`)

// academicOpenings reject institution phrases that follow "at" but are
// not employers in the company sense.
var academicOpenings = []string{
	"the university", "university of", "college of", "institute of",
	"school of",
}

// companyIndicators are legal/brand suffix tokens that mark a segment as
// a company name.
var companyIndicators = []string{
	"inc", "llc", "ltd", "corp", "gmbh", "labs", "ventures", "capital",
	"partners", "technologies", "systems", "solutions", "software",
	"studio", "studios", "group", "co",
}

// knownBrands is a small table of unambiguous employers.
var knownBrands = map[string]bool{
	"google": true, "meta": true, "amazon": true, "apple": true,
	"microsoft": true, "netflix": true, "stripe": true, "airbnb": true,
	"uber": true, "openai": true, "anthropic": true, "nvidia": true,
	"salesforce": true, "shopify": true, "datadog": true, "github": true,
	"spotify": true, "linkedin": true, "acme": true,
}

// companyHint extracts a company from the headline, falling back to the
// snippet. Confidence reflects the matched pattern: "at X" 0.90, known
// brand 0.95, legal suffix 0.85, positional tail 0.60.
func companyHint(headline, snippet string) model.Hint {
	for _, text := range []string{headline, snippet} {
		if text == "" {
			continue
		}
		if h := companyFromText(text); h.Present() {
			return h
		}
	}
	return model.EmptyHint()
}

func companyFromText(text string) model.Hint {
	// Pattern 1: "at X" / "@ X".
	if m := atPattern.FindStringSubmatch(text); m != nil {
		cand := trimCompany(m[1])
		if cand != "" && !isAcademicOpening(cand) {
			conf := 0.90
			if knownBrands[strings.ToLower(cand)] {
				conf = 0.95
			}
			return model.Hint{Value: cand, Confidence: conf, Source: model.SourceHeadlineParse}
		}
	}

	// Pattern 2: right-to-left segment scan for indicator tokens or
	// known brands.
	segments := splitSegments(text)
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" {
			continue
		}
		if knownBrands[strings.ToLower(seg)] {
			return model.Hint{Value: seg, Confidence: 0.95, Source: model.SourceHeadlineParse}
		}
		if hasCompanyIndicator(seg) {
			return model.Hint{Value: seg, Confidence: 0.85, Source: model.SourceHeadlineParse}
		}
	}

	// Pattern 3: " - X" tail.
	if i := strings.LastIndex(text, " - "); i >= 0 {
		tail := trimCompany(text[i+3:])
		if tail != "" && looksLikeName(tail) && !isAcademicOpening(tail) {
			return model.Hint{Value: tail, Confidence: 0.60, Source: model.SourceHeadlineParse}
		}
	}

	return model.EmptyHint()
}

func trimCompany(s string) string {
	s = strings.TrimSpace(s)
	// Cut at the next segment boundary so "at Acme | Ex-Google" stops
	// at "Acme".
	for _, d := range []string{" | ", " · ", " - ", ","} {
		if i := strings.Index(s, d); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	return strings.Trim(s, ".")
}

func isAcademicOpening(s string) bool {
	lower := strings.ToLower(s)
	for _, a := range academicOpenings {
		if strings.HasPrefix(lower, a) {
			return true
		}
	}
	return false
}

func hasCompanyIndicator(seg string) bool {
	words := strings.Fields(strings.ToLower(strings.Trim(seg, ".,")))
	if len(words) < 2 {
		return false
	}
	last := strings.Trim(words[len(words)-1], ".,")
	for _, ind := range companyIndicators {
		if last == ind {
			return true
		}
	}
	return false
}

// splitSegments breaks a headline on middot, pipe, and comma boundaries.
func splitSegments(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '|' || r == '·' || r == ','
	})
}
