package queryplan

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
)

// platformSite describes how a platform exposes profile URLs for
// site-scoped handle queries.
type platformSite struct {
	domain     string
	profileFmt string // handle substituted for %s; empty means name-only platform
}

var platformSites = map[model.Platform]platformSite{
	model.PlatformNPM:        {domain: "npmjs.com", profileFmt: "npmjs.com/~%s"},
	model.PlatformPyPI:       {domain: "pypi.org", profileFmt: "pypi.org/user/%s"},
	model.PlatformKaggle:     {domain: "kaggle.com", profileFmt: "kaggle.com/%s"},
	model.PlatformDribbble:   {domain: "dribbble.com", profileFmt: "dribbble.com/%s"},
	model.PlatformMedium:     {domain: "medium.com", profileFmt: "medium.com/@%s"},
	model.PlatformORCID:      {domain: "orcid.org"},
	model.PlatformScholar:    {domain: "scholar.google.com"},
	model.PlatformCrunchbase: {domain: "crunchbase.com"},
}

// PlanHandles builds the two-to-three query plan for a handle-oriented
// platform: a site-scoped clean-handle probe plus name-based searches.
func PlanHandles(platform model.Platform, h model.EnrichedHints, maxQueries int) []model.Query {
	site, ok := platformSites[platform]
	if !ok {
		return nil
	}

	b := newBuilder()

	if site.profileFmt != "" {
		if handle := hints.StripSlugSuffix(h.LinkedInID); handle != "" {
			b.add("site:"+strings.Replace(site.profileFmt, "%s", handle, 1), model.QueryHandleBased, "handle:clean")
			compact := strings.ReplaceAll(handle, "-", "")
			if compact != handle {
				b.add("site:"+strings.Replace(site.profileFmt, "%s", compact, 1), model.QueryHandleBased, "handle:compact")
			}
		}
	}

	if h.Name.Present() && h.Name.Confidence >= GateLow {
		b.add(quoted(h.Name.Value)+" site:"+site.domain, model.QueryNameOnly, "name:site")
		if h.Company.Present() && h.Company.Confidence >= GateMedium {
			b.add(quoted(h.Name.Value)+" "+h.Company.Value+" site:"+site.domain, model.QueryNameCompany, "name+company:site")
		}
	}

	return b.take(maxQueries)
}

// HandlePlatforms lists the platforms PlanHandles knows how to plan for,
// in the stable order the pipeline fans out.
func HandlePlatforms() []model.Platform {
	return []model.Platform{
		model.PlatformNPM,
		model.PlatformPyPI,
		model.PlatformKaggle,
		model.PlatformORCID,
		model.PlatformScholar,
		model.PlatformCrunchbase,
		model.PlatformDribbble,
		model.PlatformMedium,
	}
}
