package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/search"
)

func TestSERPSource_Discover(t *testing.T) {
	provider := &queuedProvider{responses: map[string]*search.Response{
		"site:npmjs.com/~jane-doe": {Results: []search.Result{
			{
				Title:    "jane-doe - npm",
				URL:      "https://www.npmjs.com/~jane-doe",
				Snippet:  "Packages by jane-doe. See linkedin.com/in/jane-doe-12345",
				Position: 1,
			},
			{
				Title:    "some package",
				URL:      "https://www.npmjs.com/package/left-pad",
				Position: 2,
			},
		}},
	}}

	src := NewSERPSource(model.PlatformNPM, newTestExecutor(provider))
	findings, stats, err := src.Discover(context.Background(), testHints(), 5, 5)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Positive(t, stats.QueriesExecuted)
	assert.Len(t, stats.Variants, stats.QueriesExecuted)

	f := findings[0]
	assert.Equal(t, model.PlatformNPM, f.Platform)
	assert.Equal(t, "jane-doe", f.PlatformID)
	assert.Equal(t, "jane-doe", f.Facts.Handle)
	assert.Equal(t, "jane-doe", f.Facts.DisplayName)
	assert.Equal(t, 1, f.SERPPosition)
	assert.Equal(t, "handle:clean", f.Variant)
	assert.Contains(t, f.Signals, model.SignalLinkedInURLInPage)
	assert.Equal(t, "https://www.npmjs.com/~jane-doe", f.BridgeURL)
}

func TestSERPSource_DedupesAcrossQueries(t *testing.T) {
	hit := search.Result{Title: "jane-doe - npm", URL: "https://npmjs.com/~jane-doe", Position: 1}
	provider := &queuedProvider{responses: map[string]*search.Response{
		"site:npmjs.com/~jane-doe":  {Results: []search.Result{hit}},
		"site:npmjs.com/~janedoe":   {Results: []search.Result{hit}},
		`"Jane Doe" site:npmjs.com`: {Results: []search.Result{hit}},
	}}

	src := NewSERPSource(model.PlatformNPM, newTestExecutor(provider))
	findings, _, err := src.Discover(context.Background(), testHints(), 5, 5)

	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestSERPSource_RespectsFindingCap(t *testing.T) {
	provider := &queuedProvider{responses: map[string]*search.Response{
		`"Jane Doe" site:kaggle.com`: {Results: []search.Result{
			{Title: "a", URL: "https://kaggle.com/user-a", Position: 1},
			{Title: "b", URL: "https://kaggle.com/user-b", Position: 2},
			{Title: "c", URL: "https://kaggle.com/user-c", Position: 3},
		}},
	}}

	src := NewSERPSource(model.PlatformKaggle, newTestExecutor(provider))
	findings, _, err := src.Discover(context.Background(), testHints(), 5, 2)

	require.NoError(t, err)
	assert.Len(t, findings, 2)
}

func TestSERPSource_NoQueriesWithoutHints(t *testing.T) {
	src := NewSERPSource(model.PlatformWeb, newTestExecutor(&queuedProvider{}))
	findings, stats, err := src.Discover(context.Background(), model.EnrichedHints{}, 5, 5)

	require.NoError(t, err)
	assert.Nil(t, findings)
	assert.Zero(t, stats.QueriesExecuted)
}

func TestDisplayNameFromTitle(t *testing.T) {
	assert.Equal(t, "Jane Doe", displayNameFromTitle("Jane Doe – Medium"))
	assert.Equal(t, "Jane Doe", displayNameFromTitle("Jane Doe | Dribbble"))
	assert.Equal(t, "jane-doe", displayNameFromTitle("jane-doe - npm"))
	assert.Equal(t, "Plain", displayNameFromTitle("  Plain "))
}
