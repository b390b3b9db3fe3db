package queryplan

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
)

// techVocabulary is the fixed set of headline keywords worth amplifying
// a name query with for technical roles.
var techVocabulary = []string{
	"golang", "python", "rust", "java", "javascript", "typescript",
	"react", "kubernetes", "docker", "terraform", "aws", "gcp",
	"pytorch", "tensorflow", "spark", "kafka", "postgres", "ml",
	"nlp", "blockchain", "ios", "android", "frontend", "backend",
}

// techRoles get the name+tech query variant.
var techRoles = map[model.RoleType]bool{
	model.RoleEngineer:      true,
	model.RoleDataScientist: true,
	model.RoleResearcher:    true,
}

// PlanGitHub builds the name-based GitHub search plan, falling back to
// slug-derived handle queries when no usable name hint survived.
func PlanGitHub(h model.EnrichedHints, maxQueries int) []model.Query {
	b := newBuilder()

	name := h.Name
	company := h.Company
	location := h.Location

	if name.Present() && name.Confidence >= GateLow {
		if name.Confidence >= GateHigh {
			b.add(quoted(name.Value), model.QueryNameOnly, "name:quoted")
		}
		b.add(name.Value, model.QueryNameOnly, "name:plain")

		if company.Present() && company.Confidence >= GateMedium {
			b.add(name.Value+" "+company.Value, model.QueryNameCompany, "name+company")
			if name.Confidence >= GateHigh {
				b.add(quoted(name.Value)+" "+company.Value+" github", model.QueryCompanyAmplified, "name+company+github")
				b.add(quoted(name.Value)+" "+company.Value+" linkedin", model.QueryCompanyAmplified, "name+company+linkedin")
			}
		}

		if location.Present() && location.Confidence >= GateMedium && len(location.Value) <= maxLocationLen {
			b.add(name.Value+" "+location.Value, model.QueryNameLocation, "name+location")
		}

		if techRoles[h.Role] && h.Headline.Present() {
			if kws := techKeywords(h.Headline.Value, 2); len(kws) > 0 {
				b.add(name.Value+" "+strings.Join(kws, " "), model.QueryNameOnly, "name+tech")
			}
		}
	}

	// Strong company, weak name: search the org instead of the person.
	if company.Present() && company.Confidence >= 0.85 &&
		(!name.Present() || name.Confidence < GateMedium) {
		b.add(company.Value, model.QueryCompanyOnly, "company:only")
		if location.Present() && location.Confidence >= GateMedium {
			b.add(company.Value+" "+location.Value, model.QueryCompanyLocation, "company+location")
		}
	}

	// No name at all: slug-based fallbacks.
	if !name.Present() || name.Confidence < GateLow {
		planSlugFallback(b, h.LinkedInID)
	}

	return b.take(maxQueries)
}

// planSlugFallback emits handle-shaped queries derived from the slug:
// the raw handle, the suffix-stripped handle, and hyphens-to-spaces
// variants in quoted and unquoted forms.
func planSlugFallback(b *builder, slug string) {
	if slug == "" {
		return
	}
	clean := hints.StripSlugSuffix(slug)

	b.add(slug, model.QuerySlugBased, "handle:raw")
	b.add(clean, model.QuerySlugBased, "handle:clean")

	spaced := strings.ReplaceAll(clean, "-", " ")
	if spaced != clean {
		b.add(quoted(spaced), model.QuerySlugBased, "handle:spaced:quoted")
		b.add(spaced, model.QuerySlugBased, "handle:spaced")
	}
}

// techKeywords scans a headline for up to max vocabulary keywords.
func techKeywords(headline string, max int) []string {
	lower := strings.ToLower(headline)
	var out []string
	for _, kw := range techVocabulary {
		if len(out) >= max {
			break
		}
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}
