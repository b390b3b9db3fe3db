package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-cli/internal/db"
	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_candidate":         `SELECT id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, last_enriched_at, created_at FROM candidates WHERE tenant_id = $1 AND id = $2`,
	"mark_enriched":         `UPDATE candidates SET enrichment_status = $1, last_enriched_at = $2 WHERE tenant_id = $3 AND id = $4`,
	"insert_session":        `INSERT INTO enrichment_sessions (id, tenant_id, candidate_id, status, detail, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_session_status": `UPDATE enrichment_sessions SET status = $1, updated_at = $2 WHERE id = $3`,
	"get_session":           `SELECT id, status, detail, run_trace FROM enrichment_sessions WHERE id = $1`,
	"list_identities":       `SELECT ` + identityColumns + ` FROM identity_candidates WHERE tenant_id = $1 AND candidate_id = $2 ORDER BY bridge_tier ASC, confidence DESC, serp_position ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that
// need direct query access (e.g., the evaluation harness).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT NOT NULL,
	tenant_id         TEXT NOT NULL,
	linkedin_slug     TEXT NOT NULL,
	linkedin_url      TEXT NOT NULL,
	serp_title        TEXT NOT NULL DEFAULT '',
	serp_snippet      TEXT NOT NULL DEFAULT '',
	serp_meta         JSONB,
	role_type         TEXT NOT NULL DEFAULT 'general',
	enrichment_status TEXT NOT NULL DEFAULT 'none',
	last_enriched_at  TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_candidates_slug ON candidates(tenant_id, linkedin_slug);
CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(enrichment_status);

CREATE TABLE IF NOT EXISTS enrichment_sessions (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	detail       JSONB NOT NULL,
	run_trace    JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_candidate ON enrichment_sessions(tenant_id, candidate_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON enrichment_sessions(status);

CREATE TABLE IF NOT EXISTS identity_candidates (
	tenant_id          TEXT NOT NULL,
	candidate_id       TEXT NOT NULL,
	platform           TEXT NOT NULL,
	platform_id        TEXT NOT NULL,
	profile_url        TEXT NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL,
	confidence_bucket  TEXT NOT NULL,
	score_breakdown    JSONB NOT NULL,
	evidence           JSONB,
	has_contradiction  BOOLEAN NOT NULL DEFAULT false,
	contradiction_note TEXT NOT NULL DEFAULT '',
	bridge_tier        SMALLINT NOT NULL,
	bridge_signals     JSONB NOT NULL,
	persist_reason     TEXT NOT NULL DEFAULT '',
	discovered_by      TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'unconfirmed',
	serp_position      INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, candidate_id, platform, platform_id)
);

CREATE INDEX IF NOT EXISTS idx_identities_bucket ON identity_candidates(tenant_id, candidate_id, confidence_bucket);
CREATE INDEX IF NOT EXISTS idx_identities_session ON identity_candidates(discovered_by);
`

// identityColumns is the canonical column order shared by the upsert and
// the scan helpers.
const identityColumns = `tenant_id, candidate_id, platform, platform_id, profile_url, confidence, confidence_bucket, score_breakdown, evidence, has_contradiction, contradiction_note, bridge_tier, bridge_signals, persist_reason, discovered_by, status, serp_position, created_at, updated_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetCandidate(ctx context.Context, tenantID, candidateID string) (*model.Candidate, error) {
	var c model.Candidate
	var metaJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, last_enriched_at, created_at
		 FROM candidates WHERE tenant_id = $1 AND id = $2`,
		tenantID, candidateID,
	).Scan(&c.ID, &c.TenantID, &c.LinkedInSlug, &c.LinkedInURL, &c.SERPTitle, &c.SERPSnippet,
		&metaJSON, &c.Role, &c.Status, &c.LastEnriched, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resilience.E(resilience.KindCandidateNotFound,
				eris.Errorf("candidate not found: %s/%s", tenantID, candidateID))
		}
		return nil, eris.Wrapf(err, "postgres: get candidate %s", candidateID)
	}

	if metaJSON != nil {
		c.SERPMeta = &model.SERPMetadata{}
		if err := json.Unmarshal(*metaJSON, c.SERPMeta); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal serp meta")
		}
	}
	return &c, nil
}

func (s *PostgresStore) UpsertCandidate(ctx context.Context, c model.Candidate) error {
	metaJSON, err := marshalNullable(c.SERPMeta)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal serp meta")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = model.EnrichmentNone
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates (id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, last_enriched_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (tenant_id, id) DO UPDATE SET
		   linkedin_slug = $3, linkedin_url = $4, serp_title = $5, serp_snippet = $6,
		   serp_meta = $7, role_type = $8`,
		c.ID, c.TenantID, c.LinkedInSlug, c.LinkedInURL, c.SERPTitle, c.SERPSnippet,
		metaJSON, string(c.Role), string(c.Status), c.LastEnriched, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert candidate %s", c.ID)
}

func (s *PostgresStore) BulkInsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error) {
	if len(cands) == 0 {
		return 0, nil
	}

	columns := []string{"id", "tenant_id", "linkedin_slug", "linkedin_url", "serp_title", "serp_snippet", "serp_meta", "role_type", "enrichment_status", "created_at"}
	rows := make([][]any, 0, len(cands))
	now := time.Now().UTC()
	for _, c := range cands {
		metaJSON, err := marshalNullable(c.SERPMeta)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal serp meta for %s", c.ID)
		}
		role := c.Role
		if role == "" {
			role = model.RoleGeneral
		}
		status := c.Status
		if status == "" {
			status = model.EnrichmentNone
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows = append(rows, []any{c.ID, c.TenantID, c.LinkedInSlug, c.LinkedInURL,
			c.SERPTitle, c.SERPSnippet, metaJSON, string(role), string(status), createdAt})
	}

	return db.CopyFrom(ctx, s.pool, "candidates", columns, rows)
}

func (s *PostgresStore) MarkCandidateEnriched(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET enrichment_status = $1, last_enriched_at = $2 WHERE tenant_id = $3 AND id = $4`,
		string(status), time.Now().UTC(), tenantID, candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark candidate enriched %s", candidateID)
	}
	if tag.RowsAffected() == 0 {
		return resilience.E(resilience.KindCandidateNotFound,
			eris.Errorf("candidate not found: %s/%s", tenantID, candidateID))
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess model.EnrichmentSession) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if sess.Status == "" {
		sess.Status = model.SessionQueued
	}

	detailJSON, err := json.Marshal(sessionDetail(sess))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal session")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_sessions (id, tenant_id, candidate_id, status, detail, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.TenantID, sess.CandidateID, string(sess.Status), detailJSON, sess.CreatedAt, sess.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert session %s", sess.ID)
}

func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session status %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, sess model.EnrichmentSession) error {
	detailJSON, err := json.Marshal(sessionDetail(sess))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal session")
	}
	traceJSON, err := marshalNullable(sess.Trace)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run trace")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_sessions SET status = $1, detail = $2, run_trace = $3, updated_at = $4 WHERE id = $5`,
		string(sess.Status), detailJSON, traceJSON, time.Now().UTC(), sess.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete session %s", sess.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	var status string
	var detailJSON []byte
	var traceJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT status, detail, run_trace FROM enrichment_sessions WHERE id = $1`,
		sessionID,
	).Scan(&status, &detailJSON, &traceJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resilience.E(resilience.KindNotFound,
				eris.Errorf("session not found: %s", sessionID))
		}
		return nil, eris.Wrapf(err, "postgres: get session %s", sessionID)
	}

	return unmarshalSession(sessionID, status, detailJSON, traceJSON)
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.EnrichmentSession, error) {
	query := `SELECT id, status, detail, run_trace FROM enrichment_sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.TenantID != "" {
		query += fmt.Sprintf(` AND tenant_id = $%d`, argIdx)
		args = append(args, filter.TenantID)
		argIdx++
	}
	if filter.CandidateID != "" {
		query += fmt.Sprintf(` AND candidate_id = $%d`, argIdx)
		args = append(args, filter.CandidateID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.EnrichmentSession
	for rows.Next() {
		var id, status string
		var detailJSON []byte
		var traceJSON *[]byte
		if err := rows.Scan(&id, &status, &detailJSON, &traceJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sess, err := unmarshalSession(id, status, detailJSON, traceJSON)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) UpsertIdentity(ctx context.Context, ic model.IdentityCandidate) error {
	row, err := identityRow(ic)
	if err != nil {
		return err
	}

	// Review status and created_at survive re-discovery; everything the
	// scorer produces is refreshed.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO identity_candidates (`+identityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (tenant_id, candidate_id, platform, platform_id) DO UPDATE SET
		   profile_url = EXCLUDED.profile_url,
		   confidence = EXCLUDED.confidence,
		   confidence_bucket = EXCLUDED.confidence_bucket,
		   score_breakdown = EXCLUDED.score_breakdown,
		   evidence = EXCLUDED.evidence,
		   has_contradiction = EXCLUDED.has_contradiction,
		   contradiction_note = EXCLUDED.contradiction_note,
		   bridge_tier = EXCLUDED.bridge_tier,
		   bridge_signals = EXCLUDED.bridge_signals,
		   persist_reason = EXCLUDED.persist_reason,
		   discovered_by = EXCLUDED.discovered_by,
		   serp_position = EXCLUDED.serp_position,
		   updated_at = EXCLUDED.updated_at`,
		row...,
	)
	return eris.Wrapf(err, "postgres: upsert identity %s/%s", ic.Platform, ic.PlatformID)
}

func (s *PostgresStore) BulkUpsertIdentities(ctx context.Context, ics []model.IdentityCandidate) (int64, error) {
	if len(ics) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(ics))
	for _, ic := range ics {
		row, err := identityRow(ic)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "identity_candidates",
		Columns:      identityColumnList(),
		ConflictKeys: []string{"tenant_id", "candidate_id", "platform", "platform_id"},
		UpdateCols: []string{"profile_url", "confidence", "confidence_bucket", "score_breakdown",
			"evidence", "has_contradiction", "contradiction_note", "bridge_tier", "bridge_signals",
			"persist_reason", "discovered_by", "serp_position", "updated_at"},
	}, rows)
}

func (s *PostgresStore) ListIdentities(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identity_candidates
		 WHERE tenant_id = $1 AND candidate_id = $2
		 ORDER BY bridge_tier ASC, confidence DESC, serp_position ASC`,
		tenantID, candidateID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list identities")
	}
	defer rows.Close()

	var identities []model.IdentityCandidate
	for rows.Next() {
		ic, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *ic)
	}
	return identities, eris.Wrap(rows.Err(), "postgres: list identities iterate")
}

func (s *PostgresStore) UpdateIdentityStatus(ctx context.Context, tenantID, candidateID string, platform model.Platform, platformID string, status model.IdentityStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE identity_candidates SET status = $1, updated_at = $2
		 WHERE tenant_id = $3 AND candidate_id = $4 AND platform = $5 AND platform_id = $6`,
		string(status), time.Now().UTC(), tenantID, candidateID, string(platform), platformID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update identity status %s/%s", platform, platformID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("identity not found: %s/%s/%s", candidateID, platform, platformID)
	}
	return nil
}

// sessionDetail strips the trace before marshalling: it lives in its own
// column so list queries can skip it.
func sessionDetail(sess model.EnrichmentSession) model.EnrichmentSession {
	sess.Trace = nil
	return sess
}

func unmarshalSession(id, status string, detailJSON []byte, traceJSON *[]byte) (*model.EnrichmentSession, error) {
	var sess model.EnrichmentSession
	if err := json.Unmarshal(detailJSON, &sess); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal session %s", id)
	}
	sess.ID = id
	sess.Status = model.SessionStatus(status)
	if traceJSON != nil {
		sess.Trace = &model.RunTrace{}
		if err := json.Unmarshal(*traceJSON, sess.Trace); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal run trace %s", id)
		}
	}
	return &sess, nil
}

// identityRow flattens an IdentityCandidate into the column order of
// identityColumns.
func identityRow(ic model.IdentityCandidate) ([]any, error) {
	breakdownJSON, err := json.Marshal(ic.Breakdown)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal score breakdown")
	}
	evidenceJSON, err := marshalNullable(ic.Evidence)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal evidence")
	}
	signals := ic.BridgeSignals
	if signals == nil {
		signals = []model.Signal{}
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal bridge signals")
	}

	now := time.Now().UTC()
	createdAt := ic.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	status := ic.Status
	if status == "" {
		status = model.IdentityUnconfirmed
	}

	return []any{
		ic.TenantID, ic.CandidateID, string(ic.Platform), ic.PlatformID, ic.ProfileURL,
		ic.Confidence, string(ic.Bucket), breakdownJSON, evidenceJSON,
		ic.HasContradiction, ic.ContradictionNote,
		int(ic.BridgeTier), signalsJSON, ic.PersistReason,
		ic.DiscoveredBy, string(status), ic.SERPPosition,
		createdAt, now,
	}, nil
}

func identityColumnList() []string {
	return []string{"tenant_id", "candidate_id", "platform", "platform_id", "profile_url",
		"confidence", "confidence_bucket", "score_breakdown", "evidence",
		"has_contradiction", "contradiction_note", "bridge_tier", "bridge_signals",
		"persist_reason", "discovered_by", "status", "serp_position", "created_at", "updated_at"}
}

func scanIdentity(row pgx.Row) (*model.IdentityCandidate, error) {
	var ic model.IdentityCandidate
	var platform, bucket, status string
	var tier int
	var breakdownJSON, signalsJSON []byte
	var evidenceJSON *[]byte

	err := row.Scan(&ic.TenantID, &ic.CandidateID, &platform, &ic.PlatformID, &ic.ProfileURL,
		&ic.Confidence, &bucket, &breakdownJSON, &evidenceJSON,
		&ic.HasContradiction, &ic.ContradictionNote,
		&tier, &signalsJSON, &ic.PersistReason,
		&ic.DiscoveredBy, &status, &ic.SERPPosition,
		&ic.CreatedAt, &ic.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan identity")
	}

	ic.Platform = model.Platform(platform)
	ic.Bucket = model.Bucket(bucket)
	ic.Status = model.IdentityStatus(status)
	ic.BridgeTier = model.Tier(tier)
	if err := json.Unmarshal(breakdownJSON, &ic.Breakdown); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal score breakdown")
	}
	if err := json.Unmarshal(signalsJSON, &ic.BridgeSignals); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal bridge signals")
	}
	if evidenceJSON != nil {
		if err := json.Unmarshal(*evidenceJSON, &ic.Evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence")
		}
	}
	return &ic, nil
}

// marshalNullable marshals v unless it is nil, keeping SQL NULL for
// absent JSONB values.
func marshalNullable(v any) (*[]byte, error) {
	switch val := v.(type) {
	case *model.SERPMetadata:
		if val == nil {
			return nil, nil
		}
	case *model.RunTrace:
		if val == nil {
			return nil, nil
		}
	case []model.Evidence:
		if len(val) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
