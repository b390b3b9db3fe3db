package platform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/identity-cli/internal/model"
)

// leadGenDomains are aggregator sites whose "profiles" are scraped
// composites, not identities. Results from them are skipped outright.
var leadGenDomains = map[string]bool{
	"rocketreach.co":  true,
	"zoominfo.com":    true,
	"apollo.io":       true,
	"contactout.com":  true,
	"signalhire.com":  true,
	"lusha.com":       true,
	"leadiq.com":      true,
	"salesql.com":     true,
	"kendoemailapp.com": true,
}

// githubReserved are first path segments on github.com that are site
// pages, not user profiles.
var githubReserved = map[string]bool{
	"about": true, "apps": true, "blog": true, "collections": true,
	"contact": true, "customer-stories": true, "events": true,
	"explore": true, "features": true, "issues": true, "join": true,
	"login": true, "marketplace": true, "new": true, "notifications": true,
	"orgs": true, "pricing": true, "pulls": true, "search": true,
	"security": true, "settings": true, "site": true, "sponsors": true,
	"topics": true, "trending": true,
}

var twitterReserved = map[string]bool{
	"home": true, "search": true, "hashtag": true, "intent": true,
	"share": true, "i": true, "explore": true, "settings": true,
	"login": true, "signup": true, "tos": true, "privacy": true,
}

var teamPagePaths = []string{"/about", "/team", "/people", "/our-team", "/leadership", "/staff"}

var orcidID = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

var linkedInRef = regexp.MustCompile(`(?i)linkedin\.com/in/([A-Za-z0-9\-_.%]+)`)

var githubRef = regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9][A-Za-z0-9-]*)`)

// DecodeURL unescapes percent-encoded URLs, up to three passes, to
// unwrap redirect-tracker wrapping. Stops early once stable or on a
// malformed escape.
func DecodeURL(raw string) string {
	out := raw
	for i := 0; i < 3; i++ {
		dec, err := url.QueryUnescape(out)
		if err != nil || dec == out {
			break
		}
		out = dec
	}
	return out
}

// Classify maps an external URL to the platform it is a profile on and
// the profile's platform ID. Returns false for site pages, lead-gen
// aggregators, LinkedIn itself, and anything unrecognized.
func Classify(raw string) (model.Platform, string, bool) {
	u, err := url.Parse(DecodeURL(raw))
	if err != nil || u.Host == "" {
		return "", "", false
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	segs := pathSegments(u.Path)

	if leadGenDomains[host] || host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com") {
		return "", "", false
	}

	switch host {
	case "github.com":
		if len(segs) == 1 && !githubReserved[segs[0]] {
			return model.PlatformGitHub, strings.ToLower(segs[0]), true
		}
	case "twitter.com", "x.com":
		if len(segs) == 1 && !twitterReserved[segs[0]] {
			return model.PlatformTwitter, strings.ToLower(segs[0]), true
		}
	case "medium.com":
		if len(segs) >= 1 && strings.HasPrefix(segs[0], "@") {
			return model.PlatformMedium, strings.ToLower(strings.TrimPrefix(segs[0], "@")), true
		}
	case "npmjs.com":
		if len(segs) == 1 && strings.HasPrefix(segs[0], "~") {
			return model.PlatformNPM, strings.ToLower(strings.TrimPrefix(segs[0], "~")), true
		}
	case "pypi.org":
		if len(segs) == 2 && segs[0] == "user" {
			return model.PlatformPyPI, strings.ToLower(segs[1]), true
		}
	case "kaggle.com":
		if len(segs) == 1 {
			return model.PlatformKaggle, strings.ToLower(segs[0]), true
		}
	case "orcid.org":
		if len(segs) == 1 && orcidID.MatchString(strings.ToUpper(segs[0])) {
			return model.PlatformORCID, strings.ToUpper(segs[0]), true
		}
	case "scholar.google.com":
		if len(segs) >= 1 && segs[0] == "citations" {
			if id := u.Query().Get("user"); id != "" {
				return model.PlatformScholar, id, true
			}
		}
	case "crunchbase.com":
		if len(segs) == 2 && segs[0] == "person" {
			return model.PlatformCrunchbase, strings.ToLower(segs[1]), true
		}
	case "dribbble.com":
		if len(segs) == 1 {
			return model.PlatformDribbble, strings.ToLower(segs[0]), true
		}
	}

	if strings.HasSuffix(host, ".substack.com") {
		sub := strings.TrimSuffix(host, ".substack.com")
		if sub != "" {
			return model.PlatformSubstack, sub, true
		}
	}

	// Company team/about pages count as an identity surface of their own:
	// the bridge is the page, the ID is the host.
	lowPath := strings.ToLower(u.Path)
	for _, p := range teamPagePaths {
		if lowPath == p || strings.HasPrefix(lowPath, p+"/") {
			return model.PlatformCompanyTeam, host, true
		}
	}

	return "", "", false
}

// SkippedDomain reports whether the URL belongs to a lead-gen
// aggregator or to LinkedIn itself.
func SkippedDomain(raw string) bool {
	u, err := url.Parse(DecodeURL(raw))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	return leadGenDomains[host] || host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// FindGitHubLogin extracts the first github.com profile login mentioned
// in free text, or "". Reserved site paths do not count.
func FindGitHubLogin(text string) string {
	m := githubRef.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	login := strings.ToLower(m[1])
	if githubReserved[login] {
		return ""
	}
	return login
}

// FindLinkedInSlug extracts the first linkedin.com/in/ slug mentioned in
// free text, or "".
func FindLinkedInSlug(text string) string {
	m := linkedInRef.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.Trim(m[1], "/.%"))
}

// MentionsCandidate reports whether text references the candidate's
// LinkedIn profile.
func MentionsCandidate(text, slug string) bool {
	if slug == "" {
		return false
	}
	return strings.EqualFold(FindLinkedInSlug(text), slug)
}

func pathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
