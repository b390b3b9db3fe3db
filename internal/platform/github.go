package platform

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/hints"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/queryplan"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/scoring"
	"github.com/sells-group/identity-cli/internal/search"
	"github.com/sells-group/identity-cli/pkg/githubapi"
)

// GitHub API quota fail-fast thresholds.
const (
	githubQuotaMin      = 5
	githubQuotaMinReset = 5 * time.Minute

	maxCommitRepos     = 3
	commitsPerRepo     = 10
	maxCommitEvidences = 3
)

// GitHubSource discovers GitHub profiles through web search and enriches
// the best candidates through the REST API, collecting bio/blog link and
// commit-email bridge signals along the way.
type GitHubSource struct {
	exec          *search.Executor
	api           githubapi.Client
	gatherCommits bool
	log           *zap.Logger
}

// NewGitHubSource builds the GitHub platform source.
func NewGitHubSource(exec *search.Executor, api githubapi.Client, gatherCommits bool) *GitHubSource {
	return &GitHubSource{exec: exec, api: api, gatherCommits: gatherCommits, log: zap.L()}
}

func (s *GitHubSource) Platform() model.Platform { return model.PlatformGitHub }

type serpSighting struct {
	position int
	variant  string
}

// Discover runs the GitHub query plan, collects logins from search
// results, then hydrates the top candidates via the API. Partial
// findings with a non-nil error are expected under rate pressure.
func (s *GitHubSource) Discover(ctx context.Context, h model.EnrichedHints, maxQueries, maxFindings int) ([]Finding, Stats, error) {
	queries := queryplan.PlanGitHub(h, maxQueries)

	seen := make(map[string]serpSighting)
	var order []string
	var firstErr error
	var stats Stats

	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		resp, err := s.exec.Do(ctx, q.Text)
		if err != nil {
			stats.record(q.Variant, 0)
			if resilience.KindOf(err) == resilience.KindRateLimited {
				stats.RateLimited = true
			}
			if firstErr == nil {
				firstErr = err
			}
			if resilience.IsJobFatal(err) {
				break
			}
			continue
		}
		stats.record(q.Variant, len(resp.Results))
		for _, hit := range resp.Results {
			p, login, ok := Classify(hit.URL)
			if !ok || p != model.PlatformGitHub {
				continue
			}
			if _, dup := seen[login]; dup {
				continue
			}
			seen[login] = serpSighting{position: hit.Position, variant: q.Variant}
			order = append(order, login)
		}
		// Enough distinct candidates to fill the platform allotment.
		if len(order) >= maxFindings*2 {
			break
		}
	}

	var findings []Finding
	for _, login := range order {
		if len(findings) >= maxFindings {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if s.quotaExhausted() {
			stats.RateLimited = true
			if firstErr == nil {
				firstErr = resilience.E(resilience.KindRateLimited, nil)
			}
			break
		}

		user, err := s.api.GetUser(ctx, login)
		if err != nil {
			if resilience.KindOf(err) == resilience.KindNotFound {
				continue
			}
			if resilience.KindOf(err) == resilience.KindRateLimited {
				stats.RateLimited = true
			}
			if firstErr == nil {
				firstErr = err
			}
			if resilience.IsJobFatal(err) {
				break
			}
			s.log.Warn("github profile fetch failed", zap.String("login", login), zap.Error(err))
			continue
		}

		findings = append(findings, s.buildFinding(ctx, h, user, seen[login]))
	}

	return findings, stats, firstErr
}

// Hydrate fetches full profiles for logins surfaced outside this
// source's own search. Reverse-link sightings only carry SERP text; the
// bio, blog, and commit bridge signals need the API.
func (s *GitHubSource) Hydrate(ctx context.Context, h model.EnrichedHints, logins []string, maxFindings int) ([]Finding, error) {
	seen := make(map[string]bool, len(logins))
	var findings []Finding
	var firstErr error

	for _, login := range logins {
		login = strings.ToLower(login)
		if login == "" || seen[login] {
			continue
		}
		seen[login] = true
		if len(findings) >= maxFindings || ctx.Err() != nil {
			break
		}
		if s.quotaExhausted() {
			if firstErr == nil {
				firstErr = resilience.E(resilience.KindRateLimited, nil)
			}
			break
		}

		user, err := s.api.GetUser(ctx, login)
		if err != nil {
			if resilience.KindOf(err) == resilience.KindNotFound {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			if resilience.IsJobFatal(err) {
				break
			}
			s.log.Warn("github profile fetch failed", zap.String("login", login), zap.Error(err))
			continue
		}

		findings = append(findings, s.buildFinding(ctx, h, user, serpSighting{variant: "url:hydrate"}))
	}

	return findings, firstErr
}

func (s *GitHubSource) buildFinding(ctx context.Context, h model.EnrichedHints, user *githubapi.User, sighting serpSighting) Finding {
	f := Finding{
		Platform:     model.PlatformGitHub,
		PlatformID:   strings.ToLower(user.Login),
		ProfileURL:   user.HTMLURL,
		SERPPosition: sighting.position,
		Variant:      sighting.variant,
		Hydrated:     true,
		Facts: scoring.ProfileFacts{
			Platform:    model.PlatformGitHub,
			Handle:      user.Login,
			DisplayName: user.Name,
			Bio:         user.Bio,
			Company:     user.Company,
			Location:    user.Location,
			BlogURL:     user.Blog,
			Followers:   user.Followers,
			PublicRepos: user.PublicRepos,
			ViaSearch:   true,
		},
	}

	if MentionsCandidate(user.Bio, h.LinkedInID) {
		f.Signals = append(f.Signals, model.SignalLinkedInURLInBio)
		f.BridgeURL = user.HTMLURL
		f.Evidence = append(f.Evidence, model.Evidence{URL: user.HTMLURL, Type: "bio"})
	}
	if MentionsCandidate(user.Blog, h.LinkedInID) {
		f.Signals = append(f.Signals, model.SignalLinkedInURLInBlog)
		if f.BridgeURL == "" {
			f.BridgeURL = user.Blog
		}
		f.Evidence = append(f.Evidence, model.Evidence{URL: user.Blog, Type: "blog"})
	}

	if s.gatherCommits {
		s.gatherCommitEvidence(ctx, h, user, &f)
	}

	return f
}

// gatherCommitEvidence counts recent commits whose author email ties
// back to the candidate and records commit URLs as evidence. Emails
// themselves are never stored.
func (s *GitHubSource) gatherCommitEvidence(ctx context.Context, h model.EnrichedHints, user *githubapi.User, f *Finding) {
	repos, err := s.api.ListRepos(ctx, user.Login, 10)
	if err != nil {
		s.log.Debug("github repo listing failed", zap.String("login", user.Login), zap.Error(err))
		return
	}

	scanned, evidences := 0, 0
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		if scanned >= maxCommitRepos {
			break
		}
		scanned++

		commits, err := s.api.ListCommits(ctx, user.Login, repo.Name, user.Login, commitsPerRepo)
		if err != nil {
			continue
		}
		for _, c := range commits {
			if !commitEmailMatches(c.Commit.Author.Email, h) {
				continue
			}
			f.Facts.CommitEmailMatches++
			if evidences < maxCommitEvidences && c.HTMLURL != "" {
				f.Evidence = append(f.Evidence, model.Evidence{URL: c.HTMLURL, Type: "commit"})
				evidences++
			}
		}
	}

	if f.Facts.CommitEmailMatches > 0 {
		f.Signals = append(f.Signals, model.SignalCommitEmailDomain)
	}
}

// commitEmailMatches ties a commit author email back to the candidate:
// either the domain belongs to the hinted company or the local part is
// the candidate's slug compacted.
func commitEmailMatches(email string, h model.EnrichedHints) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	local := compactToken(email[:at])
	domain := strings.ToLower(email[at+1:])

	if domain == "users.noreply.github.com" {
		return false
	}

	if h.Company.Present() {
		company := compactToken(h.Company.Value)
		if company != "" && strings.Contains(compactToken(domain), company) {
			return true
		}
	}

	slug := compactToken(hints.StripSlugSuffix(h.LinkedInID))
	return slug != "" && local == slug
}

func compactToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

func (s *GitHubSource) quotaExhausted() bool {
	q, ok := s.api.Quota()
	if !ok {
		return false
	}
	return q.Remaining < githubQuotaMin && time.Until(q.Reset) > githubQuotaMinReset
}
