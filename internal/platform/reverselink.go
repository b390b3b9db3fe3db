package platform

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/scoring"
	"github.com/sells-group/identity-cli/internal/search"
)

// speakerMarkers identify conference roster pages by title or URL path.
var speakerMarkers = []string{"speaker", "conference", "summit", "devcon", "keynote"}

// FindingFromSERP classifies a raw search hit from the reverse-link pass
// into a finding. Hits whose title or snippet quote the candidate's
// LinkedIn URL carry page-level bridge evidence; a company or location
// token in the result text adds the corroborating hint signal.
func FindingFromSERP(h model.EnrichedHints, hit search.Result, variant string) (Finding, bool) {
	text := hit.Title + " " + hit.Snippet

	p, id, ok := Classify(hit.URL)
	if !ok {
		return findingFromRosterPage(h, hit, text, variant)
	}

	f := Finding{
		Platform:     p,
		PlatformID:   id,
		ProfileURL:   hit.URL,
		SERPPosition: hit.Position,
		Variant:      variant,
		Facts: scoring.ProfileFacts{
			Platform:    p,
			Handle:      id,
			DisplayName: displayNameFromTitle(hit.Title),
			Bio:         hit.Snippet,
			ViaSearch:   true,
		},
	}

	switch {
	case p == model.PlatformCompanyTeam && MentionsCandidate(text, h.LinkedInID):
		f.Signals = append(f.Signals, model.SignalLinkedInURLInTeamPage)
		f.BridgeURL = hit.URL
		f.Evidence = append(f.Evidence, model.Evidence{URL: hit.URL, Type: "team_page"})
	case MentionsCandidate(text, h.LinkedInID):
		f.Signals = append(f.Signals, model.SignalLinkedInURLInPage)
		f.BridgeURL = hit.URL
		f.Evidence = append(f.Evidence, model.Evidence{URL: hit.URL, Type: "page"})
		if isSpeakerPage(hit) {
			f.Signals = append(f.Signals, model.SignalConferenceSpeaker)
		}
	}

	if hintCorroborates(h, text) {
		f.Signals = append(f.Signals, model.SignalReverseLinkHintMatch)
	}

	return f, true
}

// findingFromRosterPage salvages hits on pages that are nobody's
// profile, conference rosters mostly. When such a page quotes both the
// candidate's LinkedIn URL and a GitHub profile, the finding is that
// GitHub identity, bridged by the page.
func findingFromRosterPage(h model.EnrichedHints, hit search.Result, text, variant string) (Finding, bool) {
	if SkippedDomain(hit.URL) || !MentionsCandidate(text, h.LinkedInID) {
		return Finding{}, false
	}
	login := FindGitHubLogin(text)
	if login == "" {
		return Finding{}, false
	}

	f := Finding{
		Platform:     model.PlatformGitHub,
		PlatformID:   login,
		ProfileURL:   "https://github.com/" + login,
		SERPPosition: hit.Position,
		Variant:      variant,
		Facts: scoring.ProfileFacts{
			Platform:  model.PlatformGitHub,
			Handle:    login,
			ViaSearch: true,
		},
		Signals:   []model.Signal{model.SignalLinkedInURLInPage},
		BridgeURL: hit.URL,
		Evidence:  []model.Evidence{{URL: hit.URL, Type: "page"}},
	}
	if isSpeakerPage(hit) {
		f.Signals = append(f.Signals, model.SignalConferenceSpeaker)
	}
	if hintCorroborates(h, text) {
		f.Signals = append(f.Signals, model.SignalReverseLinkHintMatch)
	}
	return f, true
}

// isSpeakerPage recognises conference roster pages from the hit's title
// or URL path.
func isSpeakerPage(hit search.Result) bool {
	title := strings.ToLower(hit.Title)
	url := strings.ToLower(hit.URL)
	for _, m := range speakerMarkers {
		if strings.Contains(title, m) || strings.Contains(url, m) {
			return true
		}
	}
	return false
}

// hintCorroborates reports whether a company or location hint token
// appears in the result text. Single-character tokens are too common
// to count; two-letter state codes still do.
func hintCorroborates(h model.EnrichedHints, text string) bool {
	norm := " " + scoring.Normalize(text) + " "
	for _, hint := range []model.Hint{h.Company, h.Location} {
		if !hint.Present() {
			continue
		}
		for _, tok := range strings.Fields(scoring.Normalize(hint.Value)) {
			if len(tok) < 2 {
				continue
			}
			if strings.Contains(norm, " "+tok+" ") {
				return true
			}
		}
	}
	return false
}
