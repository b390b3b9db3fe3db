// Package scoring computes the weighted confidence breakdown, bridge
// tier, contradiction metadata, and persistence decision for a discovered
// platform identity.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ScoringVersion tags every breakdown so traces can distinguish scorer
// revisions in CI comparisons.
const ScoringVersion = "static-v2"

var markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize canonicalises a string for matching: lowercase, NFD
// decomposition with combining marks stripped, letters/digits/whitespace
// only, spaces collapsed.
func Normalize(s string) string {
	lowered := strings.ToLower(s)
	stripped, _, err := transform.String(markStripper, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenJaccard is the token-set Jaccard similarity of two normalised
// strings.
func tokenJaccard(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	inter := 0
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		}
	}
	union := len(set) + len(seen) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// nameSimilarity is the unweighted name match in [0,1]: token Jaccard
// plus first-name and last-name bonuses, capped at 1.
func nameSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	sim := tokenJaccard(na, nb)

	ta := strings.Fields(na)
	tb := strings.Fields(nb)
	if ta[0] == tb[0] {
		sim += 0.10
	}
	if ta[len(ta)-1] == tb[len(tb)-1] {
		sim += 0.10
	}
	if sim > 1 {
		sim = 1
	}
	return sim
}
