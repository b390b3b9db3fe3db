// Package eval replays labeled fixture cases through hint extraction,
// scoring, and the persistence gate, and computes the release metrics
// CI gates on: auto-merge precision, labeled recall, persist rate.
package eval

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/scoring"
)

// Suite is a set of labeled evaluation cases.
type Suite struct {
	Cases []Case `yaml:"cases"`
}

// Case is one candidate with the profiles discovery surfaced for it and
// the human-labeled truth set.
type Case struct {
	Name      string           `yaml:"name"`
	Candidate CandidateFixture `yaml:"candidate"`
	Findings  []FindingFixture `yaml:"findings"`

	// Truth lists "platform/platform_id" keys confirmed by a reviewer to
	// belong to the candidate. Findings not listed are labeled wrong.
	Truth []string `yaml:"truth"`
}

// CandidateFixture is the stored SERP view of the anchor candidate.
type CandidateFixture struct {
	LinkedInSlug  string `yaml:"linkedin_slug"`
	LinkedInURL   string `yaml:"linkedin_url"`
	SERPTitle     string `yaml:"serp_title"`
	SERPSnippet   string `yaml:"serp_snippet"`
	Role          string `yaml:"role"`
	LocaleCountry string `yaml:"locale_country"`
}

// FindingFixture is one discovered profile as the platform adapters
// would have reported it.
type FindingFixture struct {
	Platform   string `yaml:"platform"`
	PlatformID string `yaml:"platform_id"`
	ProfileURL string `yaml:"profile_url"`

	Handle             string `yaml:"handle"`
	DisplayName        string `yaml:"display_name"`
	Bio                string `yaml:"bio"`
	Company            string `yaml:"company"`
	Location           string `yaml:"location"`
	BlogURL            string `yaml:"blog_url"`
	Followers          int    `yaml:"followers"`
	PublicRepos        int    `yaml:"public_repos"`
	CommitEmailMatches int    `yaml:"commit_email_matches"`
	ViaSearch          bool   `yaml:"via_search"`

	Signals      []string `yaml:"signals"`
	BridgeURL    string   `yaml:"bridge_url"`
	SERPPosition int      `yaml:"serp_position"`
}

// LoadSuite reads and validates a YAML fixture suite.
func LoadSuite(path string) (*Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "eval: read suite")
	}

	var s Suite
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, eris.Wrap(err, "eval: parse suite")
	}

	if len(s.Cases) == 0 {
		return nil, eris.Errorf("eval: suite %s has no cases", path)
	}
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return nil, eris.Errorf("eval: case %d has no name", i)
		}
		if seen[c.Name] {
			return nil, eris.Errorf("eval: duplicate case name %q", c.Name)
		}
		seen[c.Name] = true
		if c.Candidate.LinkedInSlug == "" {
			return nil, eris.Errorf("eval: case %q has no candidate slug", c.Name)
		}
		for j, f := range c.Findings {
			if f.Platform == "" || f.PlatformID == "" {
				return nil, eris.Errorf("eval: case %q finding %d missing platform or id", c.Name, j)
			}
		}
	}
	return &s, nil
}

// candidate builds the model view the hint extractor works from.
func (c CandidateFixture) candidate() model.Candidate {
	cand := model.Candidate{
		LinkedInSlug: c.LinkedInSlug,
		LinkedInURL:  c.LinkedInURL,
		SERPTitle:    c.SERPTitle,
		SERPSnippet:  c.SERPSnippet,
		Role:         model.RoleType(c.Role),
	}
	if c.LocaleCountry != "" {
		cand.SERPMeta = &model.SERPMetadata{LocaleCountry: c.LocaleCountry}
	}
	return cand
}

// facts builds the scorer's profile view of the finding.
func (f FindingFixture) facts() scoring.ProfileFacts {
	return scoring.ProfileFacts{
		Platform:           model.Platform(f.Platform),
		Handle:             f.Handle,
		DisplayName:        f.DisplayName,
		Bio:                f.Bio,
		Company:            f.Company,
		Location:           f.Location,
		BlogURL:            f.BlogURL,
		Followers:          f.Followers,
		PublicRepos:        f.PublicRepos,
		CommitEmailMatches: f.CommitEmailMatches,
		ViaSearch:          f.ViaSearch,
	}
}

// signals converts the fixture's signal tags.
func (f FindingFixture) signals() []model.Signal {
	if len(f.Signals) == 0 {
		return nil
	}
	out := make([]model.Signal, len(f.Signals))
	for i, s := range f.Signals {
		out[i] = model.Signal(s)
	}
	return out
}

// key is the truth-set membership key.
func (f FindingFixture) key() string {
	return f.Platform + "/" + f.PlatformID
}
