package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/resilience"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCandidate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM candidates WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs("t1", "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCandidate(context.Background(), "t1", "missing")
	require.Error(t, err)
	assert.Equal(t, resilience.KindCandidateNotFound, resilience.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCandidate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	meta := []byte(`{"locale_country":"us"}`)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM candidates WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs("t1", "cand-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "linkedin_slug", "linkedin_url", "serp_title", "serp_snippet",
			"serp_meta", "role_type", "enrichment_status", "last_enriched_at", "created_at",
		}).AddRow("cand-1", "t1", "jane-doe-12345", "https://linkedin.com/in/jane-doe-12345",
			"Jane Doe - Acme | LinkedIn", "Engineer at Acme", &meta, "engineer", "none", nil, now))

	c, err := s.GetCandidate(context.Background(), "t1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "jane-doe-12345", c.LinkedInSlug)
	assert.Equal(t, model.RoleEngineer, c.Role)
	require.NotNil(t, c.SERPMeta)
	assert.Equal(t, "us", c.SERPMeta.LocaleCountry)
	assert.Nil(t, c.LastEnriched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkCandidateEnriched_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE candidates SET enrichment_status`).
		WithArgs("completed", pgxmock.AnyArg(), "t1", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkCandidateEnriched(context.Background(), "t1", "missing", model.EnrichmentCompleted)
	require.Error(t, err)
	assert.Equal(t, resilience.KindCandidateNotFound, resilience.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enrichment_sessions`).
		WithArgs("sess-1", "t1", "cand-1", "queued",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.CreateSession(context.Background(), model.EnrichmentSession{
		ID:          "sess-1",
		TenantID:    "t1",
		CandidateID: "cand-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateSessionStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE enrichment_sessions SET status`).
		WithArgs("running", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateSessionStatus(context.Background(), "missing", model.SessionRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	detail, err := json.Marshal(model.EnrichmentSession{
		ID:          "sess-1",
		TenantID:    "t1",
		CandidateID: "cand-1",
		Status:      model.SessionRunning, // stale copy; column wins
	})
	require.NoError(t, err)
	trace := []byte(`{"candidate_id":"cand-1","total_queries":7}`)

	mock.ExpectQuery(`SELECT status, detail, run_trace FROM enrichment_sessions`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "detail", "run_trace"}).
			AddRow("completed", detail, &trace))

	sess, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, sess.Status)
	assert.Equal(t, "cand-1", sess.CandidateID)
	require.NotNil(t, sess.Trace)
	assert.Equal(t, 7, sess.Trace.TotalQueries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT status, detail, run_trace FROM enrichment_sessions`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, resilience.KindNotFound, resilience.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertIdentity(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO identity_candidates .+ ON CONFLICT \(tenant_id, candidate_id, platform, platform_id\)`).
		WithArgs("t1", "cand-1", "github", "janedoe", "https://github.com/janedoe",
			0.93, "auto_merge", pgxmock.AnyArg(), pgxmock.AnyArg(),
			false, "",
			1, pgxmock.AnyArg(), "Tier-1 bridge, auto-merge eligible (0.93)",
			"sess-1", "unconfirmed", 1,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertIdentity(context.Background(), model.IdentityCandidate{
		TenantID:      "t1",
		CandidateID:   "cand-1",
		Platform:      model.PlatformGitHub,
		PlatformID:    "janedoe",
		ProfileURL:    "https://github.com/janedoe",
		Confidence:    0.93,
		Bucket:        model.BucketAutoMerge,
		BridgeTier:    model.Tier1,
		BridgeSignals: []model.Signal{model.SignalLinkedInURLInBio},
		PersistReason: "Tier-1 bridge, auto-merge eligible (0.93)",
		DiscoveredBy:  "sess-1",
		SERPPosition:  1,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListIdentities_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM identity_candidates`).
		WithArgs("t1", "cand-1").
		WillReturnRows(pgxmock.NewRows([]string{"tenant_id"}))

	identities, err := s.ListIdentities(context.Background(), "t1", "cand-1")
	require.NoError(t, err)
	assert.Empty(t, identities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateIdentityStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE identity_candidates SET status`).
		WithArgs("confirmed", pgxmock.AnyArg(), "t1", "cand-1", "github", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateIdentityStatus(context.Background(), "t1", "cand-1", model.PlatformGitHub, "missing", model.IdentityConfirmed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
