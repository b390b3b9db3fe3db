package trace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-cli/internal/model"
)

func TestBuilder_AssemblesTrace(t *testing.T) {
	b := NewBuilder("cand-1", "https://linkedin.com/in/jane-doe-12345", model.EnrichedHints{LinkedInID: "jane-doe-12345"})

	b.AddPlatform(model.PlatformTrace{
		Platform:        model.PlatformNPM,
		Provider:        "serper",
		QueriesExecuted: 3,
		IdentitiesFound: 0,
	})
	b.AddPlatform(model.PlatformTrace{
		Platform:        model.PlatformGitHub,
		Provider:        "serper",
		QueriesExecuted: 8,
		IdentitiesFound: 2,
		BestConfidence:  0.93,
		RateLimited:     true,
	})

	b.RecordQuery("name:quoted")
	b.RecordQuery("name:quoted")
	b.RecordQuery("handle:clean")
	b.RecordRejection("handle:clean")

	b.RecordIdentity(true, true, true)
	b.RecordIdentity(true, true, false)
	b.RecordIdentity(true, false, false)
	b.RecordIdentity(false, false, false)

	b.RecordShadow(0.93, 0.88)
	b.RecordShadow(0.45, 0.51)
	b.RecordPersistError()

	tr := b.Build()

	assert.Equal(t, "cand-1", tr.CandidateID)
	// Platforms sorted by name: github before npm.
	require.Len(t, tr.Platforms, 2)
	assert.Equal(t, model.PlatformGitHub, tr.Platforms[0].Platform)

	assert.Equal(t, 11, tr.TotalQueries)
	assert.Equal(t, []model.Platform{model.PlatformGitHub, model.PlatformNPM}, tr.PlatformsQueried)
	assert.Equal(t, []model.Platform{model.PlatformGitHub}, tr.PlatformsWithHits)
	assert.InDelta(t, 0.93, tr.BestConfidence, 1e-9)
	assert.Equal(t, []string{"serper"}, tr.ProvidersUsed)
	assert.Equal(t, []string{"serper"}, tr.RateLimitedProviders)

	assert.Equal(t, model.Funnel{Found: 4, AboveMinConfidence: 3, PassingPersistGuard: 2, Persisted: 1}, tr.Funnel)
	assert.Equal(t, 1, tr.PersistErrors)

	require.Len(t, tr.VariantStats, 2)
	assert.Equal(t, model.VariantStat{Variant: "handle:clean", Executed: 1, Rejected: 1}, tr.VariantStats[0])
	assert.Equal(t, model.VariantStat{Variant: "name:quoted", Executed: 2}, tr.VariantStats[1])

	assert.Equal(t, 2, tr.Shadow.Scored)
	assert.InDelta(t, 0.69, tr.Shadow.MeanStatic, 1e-9)
	assert.InDelta(t, 0.695, tr.Shadow.MeanDynamic, 1e-9)
	assert.InDelta(t, 0.06, tr.Shadow.MaxDivergence, 1e-9)
}

func TestBuilder_FunnelMonotonic(t *testing.T) {
	b := NewBuilder("cand-1", "", model.EnrichedHints{})

	// Inconsistent flags cannot break monotonicity: a persisted identity
	// that failed the guard still only counts as found.
	b.RecordIdentity(false, true, true)
	b.RecordIdentity(true, false, true)

	f := b.Build().Funnel
	assert.Equal(t, 2, f.Found)
	assert.Equal(t, 1, f.AboveMinConfidence)
	assert.Equal(t, 0, f.PassingPersistGuard)
	assert.Equal(t, 0, f.Persisted)
	assert.LessOrEqual(t, f.Persisted, f.PassingPersistGuard)
	assert.LessOrEqual(t, f.PassingPersistGuard, f.AboveMinConfidence)
	assert.LessOrEqual(t, f.AboveMinConfidence, f.Found)
}

func TestBuilder_ConcurrentRecording(t *testing.T) {
	b := NewBuilder("cand-1", "", model.EnrichedHints{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RecordQuery("name:plain")
			b.RecordIdentity(true, true, true)
		}()
	}
	wg.Wait()

	tr := b.Build()
	assert.Equal(t, 20, tr.Funnel.Persisted)
	require.Len(t, tr.VariantStats, 1)
	assert.Equal(t, 20, tr.VariantStats[0].Executed)
}

func TestBuilder_EmptyShadow(t *testing.T) {
	b := NewBuilder("cand-1", "", model.EnrichedHints{})
	assert.Zero(t, b.Build().Shadow)
}
