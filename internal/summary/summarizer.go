// Package summary generates the short review-inbox summary for a
// candidate's resolved identities using the Anthropic API.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/pkg/anthropic"
)

const (
	// maxIdentitiesInPrompt caps how many identities are listed in the
	// user message. ListIdentities orders best-first, so truncation
	// drops only the weakest matches.
	maxIdentitiesInPrompt = 10

	maxTokens = 512
)

// systemPrompt is the static instruction block. It is sent with a cache
// breakpoint so repeated summary jobs reuse the cached prefix.
const systemPrompt = `You are writing a short review summary of the online identities discovered for a recruiting candidate. The reviewer sees the candidate's LinkedIn headline and a list of matched platform profiles with confidence scores.

Summarize in plain, factual language:
- What the strongest matches are and why they are credible (bridge evidence, handle reuse, explicit links).
- Any contradictions or weak matches the reviewer should double-check.
- Do NOT invent facts not present in the input. Do NOT mention email addresses.

Respond with ONLY valid JSON, no other text. The object must map string keys to string values:
{"headline": "one-sentence overview", "evidence": "why the top matches are credible", "caveats": "what to double-check, or 'none'"}`

// Generator produces candidate summaries via Claude.
type Generator struct {
	ai    anthropic.Client
	model string
	log   *zap.Logger
}

// New builds a Generator. A nil log falls back to the global logger.
func New(ai anthropic.Client, model string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.L()
	}
	return &Generator{ai: ai, model: model, log: log}
}

// Summarize renders the candidate and identities into a prompt, calls
// Claude, and parses the JSON object from the response.
func (g *Generator) Summarize(ctx context.Context, c model.Candidate, identities []model.IdentityCandidate) (map[string]string, error) {
	if len(identities) == 0 {
		return nil, eris.New("summary: no identities to summarize")
	}

	resp, err := g.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: buildPrompt(c, identities)}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "summary: claude request")
	}
	resp.Usage.LogCost(g.model, "summary")

	text := resp.Text()
	if text == "" {
		return nil, eris.New("summary: empty claude response")
	}

	// Find JSON in the response (it may have surrounding text).
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, eris.Errorf("summary: no JSON in response: %s", text)
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &out); err != nil {
		return nil, eris.Wrap(err, "summary: parse response JSON")
	}
	if len(out) == 0 {
		return nil, eris.New("summary: empty summary object")
	}

	g.log.Debug("summary generated",
		zap.String("candidate", c.ID),
		zap.Int("identities", len(identities)),
		zap.Int("fields", len(out)))
	return out, nil
}

// buildPrompt renders the candidate anchor and its identities into the
// user message.
func buildPrompt(c model.Candidate, identities []model.IdentityCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate LinkedIn: %s\n", c.LinkedInSlug)
	if c.SERPTitle != "" {
		fmt.Fprintf(&b, "Headline: %s\n", c.SERPTitle)
	}
	if c.SERPSnippet != "" {
		fmt.Fprintf(&b, "Snippet: %s\n", c.SERPSnippet)
	}
	if c.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", c.Role)
	}

	b.WriteString("\nDiscovered identities:\n")
	n := len(identities)
	if n > maxIdentitiesInPrompt {
		n = maxIdentitiesInPrompt
	}
	for _, ic := range identities[:n] {
		fmt.Fprintf(&b, "- %s/%s (tier %d, confidence %.2f, %s): %s",
			ic.Platform, ic.PlatformID, ic.BridgeTier, ic.Confidence, ic.Bucket, ic.ProfileURL)
		if len(ic.BridgeSignals) > 0 {
			sigs := make([]string, len(ic.BridgeSignals))
			for i, s := range ic.BridgeSignals {
				sigs[i] = string(s)
			}
			fmt.Fprintf(&b, " [signals: %s]", strings.Join(sigs, ", "))
		}
		if ic.HasContradiction {
			fmt.Fprintf(&b, " [contradiction: %s]", ic.ContradictionNote)
		}
		b.WriteString("\n")
	}
	if len(identities) > n {
		fmt.Fprintf(&b, "(%d weaker matches omitted)\n", len(identities)-n)
	}

	return b.String()
}
