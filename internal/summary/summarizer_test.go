package summary

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/pkg/anthropic"
)

// mockAI implements anthropic.Client, recording the last request.
type mockAI struct {
	lastReq anthropic.MessageRequest
	resp    *anthropic.MessageResponse
	err     error
}

func (m *mockAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func testCandidate() model.Candidate {
	return model.Candidate{
		ID:           "cand-1",
		TenantID:     "t1",
		LinkedInSlug: "jane-doe-12345",
		SERPTitle:    "Jane Doe - Platform Engineer - Acme | LinkedIn",
		SERPSnippet:  "Austin, Texas, United States · Platform Engineer · Acme",
		Role:         model.RoleEngineer,
	}
}

func testIdentities() []model.IdentityCandidate {
	return []model.IdentityCandidate{
		{
			Platform:      model.PlatformGitHub,
			PlatformID:    "janedoe",
			ProfileURL:    "https://github.com/janedoe",
			Confidence:    0.93,
			Bucket:        model.BucketAutoMerge,
			BridgeTier:    model.Tier1,
			BridgeSignals: []model.Signal{model.SignalLinkedInURLInBio},
		},
		{
			Platform:          model.PlatformNPM,
			PlatformID:        "jdoe",
			ProfileURL:        "https://www.npmjs.com/~jdoe",
			Confidence:        0.41,
			Bucket:            model.BucketSuggest,
			BridgeTier:        model.Tier2,
			BridgeSignals:     []model.Signal{model.SignalCrossPlatformHandle},
			HasContradiction:  true,
			ContradictionNote: "profile country differs from candidate locale",
		},
	}
}

func TestSummarize_ParsesResponse(t *testing.T) {
	ai := &mockAI{resp: textResponse(`{"headline": "Strong GitHub match.", "evidence": "Explicit LinkedIn link in bio.", "caveats": "none"}`)}
	g := New(ai, "claude-haiku-4-5-20251001", zap.NewNop())

	out, err := g.Summarize(context.Background(), testCandidate(), testIdentities())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"headline": "Strong GitHub match.",
		"evidence": "Explicit LinkedIn link in bio.",
		"caveats":  "none",
	}, out)
}

func TestSummarize_PromptIncludesCandidateAndIdentities(t *testing.T) {
	ai := &mockAI{resp: textResponse(`{"headline": "ok"}`)}
	g := New(ai, "claude-haiku-4-5-20251001", zap.NewNop())

	_, err := g.Summarize(context.Background(), testCandidate(), testIdentities())
	require.NoError(t, err)

	require.Len(t, ai.lastReq.Messages, 1)
	msg := ai.lastReq.Messages[0].Content
	assert.Contains(t, msg, "jane-doe-12345")
	assert.Contains(t, msg, "github/janedoe")
	assert.Contains(t, msg, "linkedin_url_in_bio")
	assert.Contains(t, msg, "contradiction: profile country differs")

	require.Len(t, ai.lastReq.System, 1)
	require.NotNil(t, ai.lastReq.System[0].CacheControl)
	assert.Equal(t, "1h", ai.lastReq.System[0].CacheControl.TTL)
}

func TestSummarize_ExtractsJSONFromSurroundingText(t *testing.T) {
	ai := &mockAI{resp: textResponse("Here is the summary:\n{\"headline\": \"ok\"}\nDone.")}
	g := New(ai, "claude-haiku-4-5-20251001", zap.NewNop())

	out, err := g.Summarize(context.Background(), testCandidate(), testIdentities())

	require.NoError(t, err)
	assert.Equal(t, "ok", out["headline"])
}

func TestSummarize_TruncatesIdentityList(t *testing.T) {
	ai := &mockAI{resp: textResponse(`{"headline": "ok"}`)}
	g := New(ai, "claude-haiku-4-5-20251001", zap.NewNop())

	identities := make([]model.IdentityCandidate, 0, maxIdentitiesInPrompt+3)
	for i := 0; i < maxIdentitiesInPrompt+3; i++ {
		identities = append(identities, model.IdentityCandidate{
			Platform:   model.PlatformNPM,
			PlatformID: "user-" + string(rune('a'+i)),
			Confidence: 0.30,
			Bucket:     model.BucketSuggest,
			BridgeTier: model.Tier2,
		})
	}

	_, err := g.Summarize(context.Background(), testCandidate(), identities)
	require.NoError(t, err)
	assert.Contains(t, ai.lastReq.Messages[0].Content, "(3 weaker matches omitted)")
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name string
		ai   *mockAI
	}{
		{"api error", &mockAI{err: eris.New("rate limited")}},
		{"empty response", &mockAI{resp: &anthropic.MessageResponse{}}},
		{"no json", &mockAI{resp: textResponse("I cannot summarize this.")}},
		{"non-string values", &mockAI{resp: textResponse(`{"score": 0.9}`)}},
		{"empty object", &mockAI{resp: textResponse(`{}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.ai, "claude-haiku-4-5-20251001", zap.NewNop())
			_, err := g.Summarize(context.Background(), testCandidate(), testIdentities())
			assert.Error(t, err)
		})
	}
}

func TestSummarize_NoIdentities(t *testing.T) {
	ai := &mockAI{}
	g := New(ai, "claude-haiku-4-5-20251001", zap.NewNop())
	_, err := g.Summarize(context.Background(), testCandidate(), nil)
	assert.Error(t, err)
	assert.Empty(t, ai.lastReq.Messages)
}
