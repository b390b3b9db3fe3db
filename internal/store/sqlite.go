package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/identity-cli/internal/model"
	"github.com/sells-group/identity-cli/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// single-operator runs where a PostgreSQL instance is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT NOT NULL,
	tenant_id         TEXT NOT NULL,
	linkedin_slug     TEXT NOT NULL,
	linkedin_url      TEXT NOT NULL,
	serp_title        TEXT NOT NULL DEFAULT '',
	serp_snippet      TEXT NOT NULL DEFAULT '',
	serp_meta         TEXT,
	role_type         TEXT NOT NULL DEFAULT 'general',
	enrichment_status TEXT NOT NULL DEFAULT 'none',
	last_enriched_at  TIMESTAMP,
	created_at        TIMESTAMP NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_candidates_slug ON candidates(tenant_id, linkedin_slug);

CREATE TABLE IF NOT EXISTS enrichment_sessions (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	detail       TEXT NOT NULL,
	run_trace    TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_candidate ON enrichment_sessions(tenant_id, candidate_id, created_at DESC);

CREATE TABLE IF NOT EXISTS identity_candidates (
	tenant_id          TEXT NOT NULL,
	candidate_id       TEXT NOT NULL,
	platform           TEXT NOT NULL,
	platform_id        TEXT NOT NULL,
	profile_url        TEXT NOT NULL,
	confidence         REAL NOT NULL,
	confidence_bucket  TEXT NOT NULL,
	score_breakdown    TEXT NOT NULL,
	evidence           TEXT,
	has_contradiction  INTEGER NOT NULL DEFAULT 0,
	contradiction_note TEXT NOT NULL DEFAULT '',
	bridge_tier        INTEGER NOT NULL,
	bridge_signals     TEXT NOT NULL,
	persist_reason     TEXT NOT NULL DEFAULT '',
	discovered_by      TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'unconfirmed',
	serp_position      INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL,
	PRIMARY KEY (tenant_id, candidate_id, platform, platform_id)
);

CREATE INDEX IF NOT EXISTS idx_identities_bucket ON identity_candidates(tenant_id, candidate_id, confidence_bucket);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, tenantID, candidateID string) (*model.Candidate, error) {
	var c model.Candidate
	var metaJSON sql.NullString
	var lastEnriched sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, last_enriched_at, created_at
		 FROM candidates WHERE tenant_id = ? AND id = ?`,
		tenantID, candidateID,
	).Scan(&c.ID, &c.TenantID, &c.LinkedInSlug, &c.LinkedInURL, &c.SERPTitle, &c.SERPSnippet,
		&metaJSON, &c.Role, &c.Status, &lastEnriched, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, resilience.E(resilience.KindCandidateNotFound,
				eris.Errorf("candidate not found: %s/%s", tenantID, candidateID))
		}
		return nil, eris.Wrapf(err, "sqlite: get candidate %s", candidateID)
	}

	if metaJSON.Valid {
		c.SERPMeta = &model.SERPMetadata{}
		if err := json.Unmarshal([]byte(metaJSON.String), c.SERPMeta); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal serp meta")
		}
	}
	if lastEnriched.Valid {
		t := lastEnriched.Time
		c.LastEnriched = &t
	}
	return &c, nil
}

func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c model.Candidate) error {
	metaJSON, err := marshalNullString(c.SERPMeta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal serp meta")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = model.EnrichmentNone
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, last_enriched_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, id) DO UPDATE SET
		   linkedin_slug = excluded.linkedin_slug, linkedin_url = excluded.linkedin_url,
		   serp_title = excluded.serp_title, serp_snippet = excluded.serp_snippet,
		   serp_meta = excluded.serp_meta, role_type = excluded.role_type`,
		c.ID, c.TenantID, c.LinkedInSlug, c.LinkedInURL, c.SERPTitle, c.SERPSnippet,
		metaJSON, string(c.Role), string(c.Status), c.LastEnriched, c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert candidate %s", c.ID)
}

func (s *SQLiteStore) BulkInsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error) {
	if len(cands) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (id, tenant_id, linkedin_slug, linkedin_url, serp_title, serp_snippet, serp_meta, role_type, enrichment_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare bulk insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, c := range cands {
		metaJSON, err := marshalNullString(c.SERPMeta)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal serp meta for %s", c.ID)
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
		if _, err := stmt.ExecContext(ctx, c.ID, c.TenantID, c.LinkedInSlug, c.LinkedInURL,
			c.SERPTitle, c.SERPSnippet, metaJSON, string(role), string(status), createdAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert candidate %s", c.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return n, nil
}

func (s *SQLiteStore) MarkCandidateEnriched(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET enrichment_status = ?, last_enriched_at = ? WHERE tenant_id = ? AND id = ?`,
		string(status), time.Now().UTC(), tenantID, candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark candidate enriched %s", candidateID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return resilience.E(resilience.KindCandidateNotFound,
			eris.Errorf("candidate not found: %s/%s", tenantID, candidateID))
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess model.EnrichmentSession) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if sess.Status == "" {
		sess.Status = model.SessionQueued
	}

	detailJSON, err := json.Marshal(sessionDetail(sess))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_sessions (id, tenant_id, candidate_id, status, detail, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.TenantID, sess.CandidateID, string(sess.Status), string(detailJSON), sess.CreatedAt, sess.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert session %s", sess.ID)
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session status %s", sessionID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, sess model.EnrichmentSession) error {
	detailJSON, err := json.Marshal(sessionDetail(sess))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}
	traceJSON, err := marshalNullString(sess.Trace)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run trace")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_sessions SET status = ?, detail = ?, run_trace = ?, updated_at = ? WHERE id = ?`,
		string(sess.Status), string(detailJSON), traceJSON, time.Now().UTC(), sess.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete session %s", sess.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	var status, detailJSON string
	var traceJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT status, detail, run_trace FROM enrichment_sessions WHERE id = ?`,
		sessionID,
	).Scan(&status, &detailJSON, &traceJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, resilience.E(resilience.KindNotFound,
				eris.Errorf("session not found: %s", sessionID))
		}
		return nil, eris.Wrapf(err, "sqlite: get session %s", sessionID)
	}

	var trace *[]byte
	if traceJSON.Valid {
		b := []byte(traceJSON.String)
		trace = &b
	}
	return unmarshalSession(sessionID, status, []byte(detailJSON), trace)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.EnrichmentSession, error) {
	query := `SELECT id, status, detail, run_trace FROM enrichment_sessions WHERE true`
	args := []any{}

	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if filter.CandidateID != "" {
		query += ` AND candidate_id = ?`
		args = append(args, filter.CandidateID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.EnrichmentSession
	for rows.Next() {
		var id, status, detailJSON string
		var traceJSON sql.NullString
		if err := rows.Scan(&id, &status, &detailJSON, &traceJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		var trace *[]byte
		if traceJSON.Valid {
			b := []byte(traceJSON.String)
			trace = &b
		}
		sess, err := unmarshalSession(id, status, []byte(detailJSON), trace)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) UpsertIdentity(ctx context.Context, ic model.IdentityCandidate) error {
	return s.upsertIdentityExec(ctx, s.db, ic)
}

func (s *SQLiteStore) BulkUpsertIdentities(ctx context.Context, ics []model.IdentityCandidate) (int64, error) {
	if len(ics) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, ic := range ics {
		if err := s.upsertIdentityExec(ctx, tx, ic); err != nil {
			return 0, err
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk upsert")
	}
	return n, nil
}

// execer abstracts *sql.DB and *sql.Tx so upserts run standalone or
// inside a bulk transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) upsertIdentityExec(ctx context.Context, ex execer, ic model.IdentityCandidate) error {
	row, err := identityRow(ic)
	if err != nil {
		return err
	}
	// identityRow targets pgx; convert JSON columns and pointers to
	// database/sql-friendly values.
	for i, v := range row {
		switch val := v.(type) {
		case []byte:
			row[i] = string(val)
		case *[]byte:
			if val == nil {
				row[i] = nil
			} else {
				row[i] = string(*val)
			}
		}
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO identity_candidates (`+identityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, candidate_id, platform, platform_id) DO UPDATE SET
		   profile_url = excluded.profile_url,
		   confidence = excluded.confidence,
		   confidence_bucket = excluded.confidence_bucket,
		   score_breakdown = excluded.score_breakdown,
		   evidence = excluded.evidence,
		   has_contradiction = excluded.has_contradiction,
		   contradiction_note = excluded.contradiction_note,
		   bridge_tier = excluded.bridge_tier,
		   bridge_signals = excluded.bridge_signals,
		   persist_reason = excluded.persist_reason,
		   discovered_by = excluded.discovered_by,
		   serp_position = excluded.serp_position,
		   updated_at = excluded.updated_at`,
		row...,
	)
	return eris.Wrapf(err, "sqlite: upsert identity %s/%s", ic.Platform, ic.PlatformID)
}

func (s *SQLiteStore) ListIdentities(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identity_candidates
		 WHERE tenant_id = ? AND candidate_id = ?
		 ORDER BY bridge_tier ASC, confidence DESC, serp_position ASC`,
		tenantID, candidateID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list identities")
	}
	defer rows.Close()

	var identities []model.IdentityCandidate
	for rows.Next() {
		ic, err := scanIdentitySQL(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *ic)
	}
	return identities, eris.Wrap(rows.Err(), "sqlite: list identities iterate")
}

func (s *SQLiteStore) UpdateIdentityStatus(ctx context.Context, tenantID, candidateID string, platform model.Platform, platformID string, status model.IdentityStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_candidates SET status = ?, updated_at = ?
		 WHERE tenant_id = ? AND candidate_id = ? AND platform = ? AND platform_id = ?`,
		string(status), time.Now().UTC(), tenantID, candidateID, string(platform), platformID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update identity status %s/%s", platform, platformID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("identity not found: %s/%s/%s", candidateID, platform, platformID)
	}
	return nil
}

func scanIdentitySQL(rows *sql.Rows) (*model.IdentityCandidate, error) {
	var ic model.IdentityCandidate
	var platform, bucket, status string
	var tier int
	var breakdownJSON, signalsJSON string
	var evidenceJSON sql.NullString

	err := rows.Scan(&ic.TenantID, &ic.CandidateID, &platform, &ic.PlatformID, &ic.ProfileURL,
		&ic.Confidence, &bucket, &breakdownJSON, &evidenceJSON,
		&ic.HasContradiction, &ic.ContradictionNote,
		&tier, &signalsJSON, &ic.PersistReason,
		&ic.DiscoveredBy, &status, &ic.SERPPosition,
		&ic.CreatedAt, &ic.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan identity")
	}

	ic.Platform = model.Platform(platform)
	ic.Bucket = model.Bucket(bucket)
	ic.Status = model.IdentityStatus(status)
	ic.BridgeTier = model.Tier(tier)
	if err := json.Unmarshal([]byte(breakdownJSON), &ic.Breakdown); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal score breakdown")
	}
	if err := json.Unmarshal([]byte(signalsJSON), &ic.BridgeSignals); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal bridge signals")
	}
	if evidenceJSON.Valid {
		if err := json.Unmarshal([]byte(evidenceJSON.String), &ic.Evidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal evidence")
		}
	}
	return &ic, nil
}

// marshalNullString is the database/sql counterpart of marshalNullable.
func marshalNullString(v any) (any, error) {
	b, err := marshalNullable(v)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	return string(*b), nil
}
