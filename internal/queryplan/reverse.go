package queryplan

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/model"
)

// reverseRoles additionally get the conference/speaker variant.
var reverseRoles = map[model.RoleType]bool{
	model.RoleEngineer:   true,
	model.RoleResearcher: true,
}

// PlanReverseLink builds the URL-anchored reverse-link plan: external
// pages that link back to the candidate's LinkedIn URL.
func PlanReverseLink(h model.EnrichedHints, maxQueries int) []model.Query {
	b := newBuilder()

	anchor := canonicalLinkedInRef(h.LinkedInURL, h.LinkedInID)
	if anchor == "" {
		return nil
	}

	b.add(quoted(anchor), model.QueryURLReverse, "url:exact")
	b.add(quoted(anchor)+" site:github.com", model.QueryURLReverse, "url:github")
	b.add(quoted(anchor)+" portfolio OR \"personal site\"", model.QueryURLReverse, "url:portfolio")

	if reverseRoles[h.Role] {
		b.add(quoted(anchor)+" conference OR speaker", model.QueryURLReverse, "url:conference")
	}

	return b.take(maxQueries)
}

// canonicalLinkedInRef reduces the stored URL to the scheme-less form
// pages actually embed, falling back to building one from the slug.
func canonicalLinkedInRef(url, slug string) string {
	u := strings.TrimSpace(url)
	if u == "" {
		if slug == "" {
			return ""
		}
		return "linkedin.com/in/" + slug
	}
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}
