package monitoring

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-cli/internal/model"
)

func TestObserveSession(t *testing.T) {
	m := New()
	m.ObserveSession(&model.EnrichmentSession{
		Status:     model.SessionCompleted,
		DurationMS: 4200,
		Trace: &model.RunTrace{
			Platforms: []model.PlatformTrace{
				{Platform: model.PlatformGitHub, Provider: "serper", QueriesExecuted: 3},
				{Platform: model.PlatformNPM, Provider: "serper", QueriesExecuted: 2, RateLimited: true},
			},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsProcessed.WithLabelValues("completed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.queriesExecuted.WithLabelValues("serper")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitEvents.WithLabelValues("serper")))
}

func TestObserveSession_NilSafe(t *testing.T) {
	m := New()
	m.ObserveSession(nil)
	m.ObserveSession(&model.EnrichmentSession{Status: model.SessionFailed})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsProcessed.WithLabelValues("failed")))
}

func TestObserveIdentityAndQueueDepth(t *testing.T) {
	m := New()
	m.ObserveIdentity(model.IdentityCandidate{Platform: model.PlatformGitHub, BridgeTier: model.Tier1})
	m.ObserveIdentity(model.IdentityCandidate{Platform: model.PlatformGitHub, BridgeTier: model.Tier1})
	m.SetQueueDepth(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.identitiesPersisted.WithLabelValues("github", "1")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.queueDepth))
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.SetQueueDepth(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "identity_queue_depth 1")
}
