package hints

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/identity-cli/internal/model"
)

// Delimiters that separate the name from the headline in a SERP title,
// checked by earliest occurrence.
var titleDelimiters = []string{" - ", " | ", " · ", ", "}

var notificationBadge = regexp.MustCompile(`^\(\d+\)\s*`)

// linkedinMarkers are the trailing site markers search engines append.
var linkedinMarkers = []string{" | LinkedIn", " - LinkedIn"}

// cleanTitle strips the LinkedIn site marker and any "(N)" notification
// badge from a SERP title.
func cleanTitle(title string) string {
	t := strings.TrimSpace(title)
	for _, m := range linkedinMarkers {
		if strings.HasSuffix(t, m) {
			t = strings.TrimSuffix(t, m)
			break
		}
	}
	return strings.TrimSpace(notificationBadge.ReplaceAllString(t, ""))
}

// hadLinkedInMarker reports whether the raw title carried the site marker,
// which is the strongest signal the title follows the profile template.
func hadLinkedInMarker(title string) bool {
	t := strings.TrimSpace(title)
	for _, m := range linkedinMarkers {
		if strings.HasSuffix(t, m) {
			return true
		}
	}
	return false
}

// firstDelimiter returns the earliest-occurring title delimiter and its
// index, or ("", -1) when none is present.
func firstDelimiter(s string) (string, int) {
	best := -1
	var delim string
	for _, d := range titleDelimiters {
		if i := strings.Index(s, d); i >= 0 && (best < 0 || i < best) {
			best = i
			delim = d
		}
	}
	return delim, best
}

// nameFromTitle extracts the candidate name from a cleaned SERP title.
// Confidence tracks how cleanly the profile template matched: both the
// site marker and a delimiter, one of the two, or a bare name.
func nameFromTitle(cleaned string, marker bool) model.Hint {
	if cleaned == "" {
		return model.EmptyHint()
	}

	delim, idx := firstDelimiter(cleaned)
	left := cleaned
	if idx >= 0 {
		left = strings.TrimSpace(cleaned[:idx])
	}

	// "Last, First" comma form: reverse when both sides are single
	// name-like words.
	if delim == ", " {
		right := strings.TrimSpace(cleaned[idx+len(delim):])
		if d2, j := firstDelimiter(right); d2 != "" {
			right = strings.TrimSpace(right[:j])
		}
		if len(strings.Fields(left)) == 1 && len(strings.Fields(right)) == 1 &&
			looksLikeName(left) && looksLikeName(right) {
			left = right + " " + left
		}
	}

	if !looksLikeName(left) {
		return model.EmptyHint()
	}

	conf := 0.75
	switch {
	case idx >= 0 && marker:
		conf = 0.95
	case idx >= 0 || marker:
		conf = 0.85
	}
	return model.Hint{Value: left, Confidence: conf, Source: model.SourceSERPTitle}
}

// headlineFromTitle returns whatever follows the first recognised
// delimiter in the cleaned title.
func headlineFromTitle(cleaned string) model.Hint {
	_, idx := firstDelimiter(cleaned)
	if idx < 0 {
		return model.EmptyHint()
	}
	delim, _ := firstDelimiter(cleaned)
	rest := strings.TrimSpace(cleaned[idx+len(delim):])
	if rest == "" {
		return model.EmptyHint()
	}
	return model.Hint{Value: rest, Confidence: 0.80, Source: model.SourceSERPTitle}
}

// jobTitleKeywords disqualify a segment from being a person name.
var jobTitleKeywords = []string{
	"engineer", "developer", "manager", "director", "consultant",
	"specialist", "analyst", "recruiter", "designer", "scientist",
	"founder", "ceo", "cto", "cfo", "coo", "president", "professor",
	"student", "intern", "lead", "head", "officer", "architect",
	"linkedin", "profile", "professional",
}

// looksLikeName applies the name-likeness predicate: leading Unicode
// letter, one to five words, no job-title keywords.
func looksLikeName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	if !unicode.IsLetter(r) {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 1 || len(words) > 5 {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range jobTitleKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
