package hints

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/identity-cli/internal/model"
)

var locationPrefix = regexp.MustCompile(`(?i)\blocation:\s*([^.|·]+)`)

// cityState matches the "City, ST" form with a two-letter state code.
var cityState = regexp.MustCompile(`\b([A-Z][\p{L}.\- ]+),\s*([A-Z]{2})\b`)

var basedIn = regexp.MustCompile(`(?i)\bbased in\s+([\p{L}][\p{L}\- ,]{1,40})`)

// usStates maps state abbreviations for plausibility and country checks.
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

// countryTable maps lowercase country names to ISO codes. Used both for
// plausibility and for the locale agreement check.
var countryTable = map[string]string{
	"united states": "us", "usa": "us", "united kingdom": "gb", "uk": "gb",
	"germany": "de", "france": "fr", "canada": "ca", "australia": "au",
	"india": "in", "netherlands": "nl", "spain": "es", "italy": "it",
	"brazil": "br", "japan": "jp", "singapore": "sg", "ireland": "ie",
	"sweden": "se", "switzerland": "ch", "poland": "pl", "israel": "il",
}

// knownCities covers major cities that appear without state or country.
var knownCities = map[string]string{
	"san francisco": "us", "new york": "us", "seattle": "us",
	"austin": "us", "boston": "us", "chicago": "us", "los angeles": "us",
	"london": "gb", "berlin": "de", "paris": "fr", "amsterdam": "nl",
	"toronto": "ca", "vancouver": "ca", "sydney": "au", "bangalore": "in",
	"bengaluru": "in", "dublin": "ie", "zurich": "ch", "tel aviv": "il",
	"tokyo": "jp",
}

// locationHint extracts a plausible location from the title and snippet.
func locationHint(title, snippet string) model.Hint {
	// Explicit "Location:" prefix in the snippet is the strongest form.
	for _, text := range []string{snippet, title} {
		if m := locationPrefix.FindStringSubmatch(text); m != nil {
			loc := strings.TrimSpace(m[1])
			if plausibleLocation(loc) {
				return model.Hint{Value: loc, Confidence: 0.95, Source: model.SourceSERPSnippet}
			}
		}
	}

	// "City, ST" pattern.
	for _, text := range []string{snippet, title} {
		if m := cityState.FindStringSubmatch(text); m != nil {
			if usStates[m[2]] {
				return model.Hint{Value: strings.TrimSpace(m[0]), Confidence: 0.85, Source: model.SourceSERPSnippet}
			}
		}
	}

	// Segment split on middot/pipe.
	for _, text := range []string{title, snippet} {
		for _, seg := range splitOnMarks(text) {
			seg = strings.TrimSpace(seg)
			if plausibleLocation(seg) {
				return model.Hint{Value: seg, Confidence: 0.70, Source: model.SourceSERPSnippet}
			}
		}
	}

	// "based in X" phrasing.
	for _, text := range []string{snippet, title} {
		if m := basedIn.FindStringSubmatch(text); m != nil {
			loc := strings.TrimSpace(strings.Trim(m[1], ",. "))
			if plausibleLocation(loc) {
				return model.Hint{Value: loc, Confidence: 0.70, Source: model.SourceSERPSnippet}
			}
		}
	}

	return model.EmptyHint()
}

func splitOnMarks(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '·' || r == '|'
	})
}

// plausibleLocation accepts known states, countries, cities, or the
// "City, Xxx" form with an initial-capital second part.
func plausibleLocation(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return false
	}
	lower := strings.ToLower(s)

	if _, ok := countryTable[lower]; ok {
		return true
	}
	if _, ok := knownCities[lower]; ok {
		return true
	}
	if usStates[strings.ToUpper(s)] {
		return true
	}
	if cityState.MatchString(s) {
		return true
	}

	// "City, Initial-capital" form.
	if i := strings.Index(s, ", "); i > 0 {
		rest := strings.TrimSpace(s[i+2:])
		if rest != "" {
			r := []rune(rest)[0]
			if unicode.IsUpper(r) {
				return true
			}
		}
	}

	return false
}

// CountryCode resolves the country implied by a location string, or ""
// when it cannot be determined.
func CountryCode(loc string) string {
	return countryCodeOf(loc)
}

// countryCodeOf resolves the country implied by a location string, or ""
// when it cannot be determined.
func countryCodeOf(loc string) string {
	lower := strings.ToLower(strings.TrimSpace(loc))
	if cc, ok := countryTable[lower]; ok {
		return cc
	}
	if cc, ok := knownCities[lower]; ok {
		return cc
	}
	// Trailing segment may be a country: "Berlin, Germany".
	if i := strings.LastIndex(lower, ", "); i >= 0 {
		tail := strings.TrimSpace(lower[i+2:])
		if cc, ok := countryTable[tail]; ok {
			return cc
		}
		if usStates[strings.ToUpper(tail)] {
			return "us"
		}
	}
	// City prefix: "San Francisco Bay Area".
	for city, cc := range knownCities {
		if strings.HasPrefix(lower, city) {
			return cc
		}
	}
	if m := cityState.FindStringSubmatch(loc); m != nil && usStates[m[2]] {
		return "us"
	}
	return ""
}

// normalizeCountryCode maps a LinkedIn locale fragment to an ISO code.
func normalizeCountryCode(locale string) string {
	lc := strings.ToLower(strings.TrimSpace(locale))
	if cc, ok := countryTable[lc]; ok {
		return cc
	}
	return lc
}
