package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/taskvoice/core"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS action_records (
	id           TEXT PRIMARY KEY,
	actor        TEXT NOT NULL,
	session_id   TEXT NOT NULL DEFAULT '',
	action_type  TEXT NOT NULL,
	target_type  TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	metadata     TEXT NOT NULL DEFAULT '{}',
	ts           INTEGER NOT NULL,
	embedding    BLOB,
	access_count INTEGER NOT NULL DEFAULT 0,
	strength     REAL NOT NULL DEFAULT 1.0,
	last_access  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_records_actor_ts ON action_records(actor, ts);
`

// SQLiteStore is a durable ActionStore backed by SQLite. Embeddings are
// stored as BLOBs (little-endian float32 arrays) and cosine similarity is
// computed in Go, which stays sub-millisecond at the log sizes a single
// assistant produces. The table is append-only: the only UPDATE issued
// touches the recall accounting columns.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
}

// Open opens (or creates) a SQLite-backed store at path using the pure-Go
// modernc driver.
func Open(path string, optFns ...func(o *Options)) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return NewSQLiteStore(db, optFns...)
}

// NewSQLiteStore wraps an existing database handle, creating the schema if
// needed.
func NewSQLiteStore(db *sql.DB, optFns ...func(o *Options)) (*SQLiteStore, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.applyDefaults()
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure action_records schema: %w", err)
	}
	return &SQLiteStore{db: db, opts: opts}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append inserts a record. Duplicate ids are rejected by the primary key so
// history can never be rewritten in place.
func (s *SQLiteStore) Append(ctx context.Context, r *core.ActionRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = s.opts.Clock().UTC()
	}
	strength := r.Strength
	if strength == 0 {
		strength = InitialStrength
	}
	lastAccess := r.LastAccess
	if lastAccess.IsZero() {
		lastAccess = ts
	}
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO action_records
			(id, actor, session_id, action_type, target_type, target_id, summary, metadata, ts, embedding, access_count, strength, last_access)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Actor, r.SessionID, string(r.Type), string(r.Target.Type), r.Target.ID,
		r.Summary, string(meta), ts.UnixNano(), encodeFloat32s(r.Embedding),
		r.AccessCount, strength, lastAccess.UnixNano(),
	)
	if err != nil {
		return &core.StoreUnavailableError{Op: "append", Err: err}
	}
	return nil
}

// Search ranks all embedded records by cosine similarity blended with the
// strength boost, honoring the context deadline with an explicit
// core.ErrSearchTimeout and an empty result.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int, filter core.ActionFilter) ([]core.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
	}
	if k <= 0 {
		return []core.ActionRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, session_id, action_type, target_type, target_id, summary, metadata, ts, embedding, access_count, strength, last_access
		FROM action_records
		WHERE embedding IS NOT NULL
		ORDER BY ts ASC`)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
		}
		return nil, &core.StoreUnavailableError{Op: "search", Err: err}
	}
	defer rows.Close()

	now := s.opts.Clock().UTC()
	type scored struct {
		rec   core.ActionRecord
		score float64
	}
	var candidates []scored
	for rows.Next() {
		rec, blob, err := scanRecord(rows)
		if err != nil {
			return nil, &core.StoreUnavailableError{Op: "search", Err: err}
		}
		rec.Embedding = decodeFloat32s(blob)
		if !filter.Matches(&rec) {
			continue
		}
		sim := cosineSimilarity(query, rec.Embedding)
		if sim <= 0 {
			continue
		}
		eff := decayedStrength(rec.Strength, rec.LastAccess, now, s.opts.HalfLife)
		candidates = append(candidates, scored{rec: rec, score: sim + strengthBoost(eff, s.opts.StrengthWeight)})
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
		}
		return nil, &core.StoreUnavailableError{Op: "search", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]core.ActionRecord, 0, len(candidates))
	for _, c := range candidates {
		rec := c.rec
		rec.Strength = decayedStrength(rec.Strength, rec.LastAccess, now, s.opts.HalfLife) + accessGain
		rec.AccessCount++
		rec.LastAccess = now
		if _, err := s.db.ExecContext(ctx,
			`UPDATE action_records SET access_count = ?, strength = ?, last_access = ? WHERE id = ?`,
			rec.AccessCount, rec.Strength, rec.LastAccess.UnixNano(), rec.ID,
		); err != nil {
			return nil, &core.StoreUnavailableError{Op: "search", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetRecent returns records by actor within the trailing window, oldest first.
func (s *SQLiteStore) GetRecent(ctx context.Context, actor string, window time.Duration) ([]core.ActionRecord, error) {
	cutoff := s.opts.Clock().UTC().Add(-window).UnixNano()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, session_id, action_type, target_type, target_id, summary, metadata, ts, embedding, access_count, strength, last_access
		FROM action_records
		WHERE (? = '' OR actor = ?) AND ts >= ?
		ORDER BY ts ASC`, actor, actor, cutoff)
	if err != nil {
		return nil, &core.StoreUnavailableError{Op: "get_recent", Err: err}
	}
	defer rows.Close()

	var out []core.ActionRecord
	for rows.Next() {
		rec, blob, err := scanRecord(rows)
		if err != nil {
			return nil, &core.StoreUnavailableError{Op: "get_recent", Err: err}
		}
		rec.Embedding = decodeFloat32s(blob)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreUnavailableError{Op: "get_recent", Err: err}
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (core.ActionRecord, []byte, error) {
	var (
		rec        core.ActionRecord
		actionType string
		targetType string
		meta       string
		ts         int64
		lastAccess int64
		blob       []byte
	)
	err := rows.Scan(&rec.ID, &rec.Actor, &rec.SessionID, &actionType, &targetType, &rec.Target.ID,
		&rec.Summary, &meta, &ts, &blob, &rec.AccessCount, &rec.Strength, &lastAccess)
	if err != nil {
		return rec, nil, err
	}
	rec.Type = core.ActionType(actionType)
	rec.Target.Type = core.EntityType(targetType)
	rec.Timestamp = time.Unix(0, ts).UTC()
	rec.LastAccess = time.Unix(0, lastAccess).UTC()
	if meta != "" && meta != "null" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
			return rec, nil, fmt.Errorf("decode metadata for %s: %w", rec.ID, err)
		}
	}
	return rec, blob, nil
}

// encodeFloat32s packs a vector as a little-endian float32 BLOB.
func encodeFloat32s(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s unpacks a little-endian float32 BLOB.
func decodeFloat32s(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
