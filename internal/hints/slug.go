package hints

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/identity-cli/internal/model"
)

// hexNumericSuffix matches LinkedIn's disambiguation tails: pure digits,
// or hex-looking runs of 5+ characters containing at least one digit.
var hexNumericSuffix = regexp.MustCompile(`^(\d+|[0-9a-f]{5,})$`)

var hasDigit = regexp.MustCompile(`\d`)

// credentialTails are degree/credential tokens commonly appended to slugs.
var credentialTails = map[string]bool{
	"phd": true, "md": true, "mba": true, "cpa": true, "pe": true,
	"esq": true, "cfa": true, "frm": true, "dds": true, "jd": true,
	"rn": true, "pmp": true, "msc": true, "bsc": true,
}

// StripSlugSuffix removes trailing hex/numeric disambiguation tokens from
// a LinkedIn slug, leaving the name-bearing part. Exposed for the query
// planner's slug-based fallbacks.
func StripSlugSuffix(slug string) string {
	tokens := strings.Split(strings.ToLower(strings.TrimSpace(slug)), "-")
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if hexNumericSuffix.MatchString(last) && hasDigit.MatchString(last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	return strings.Join(tokens, "-")
}

// nameFromSlug reconstructs a name from the URL slug when the title gave
// nothing. Requires a hyphenated slug; capitalises two to three tokens.
func nameFromSlug(slug string) model.Hint {
	s := StripSlugSuffix(slug)

	tokens := strings.Split(s, "-")
	// Drop credential tails after the numeric suffix strip.
	for len(tokens) > 1 && credentialTails[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	if len(tokens) < 2 {
		return model.EmptyHint()
	}

	conf := 0.0
	switch {
	case len(tokens) == 2:
		conf = 0.50
	case len(tokens) == 3:
		conf = 0.60
	default:
		tokens = tokens[:3]
		conf = 0.40
	}

	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return model.EmptyHint()
		}
		parts = append(parts, capitalize(tok))
	}
	return model.Hint{Value: strings.Join(parts, " "), Confidence: conf, Source: model.SourceURLSlug}
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
