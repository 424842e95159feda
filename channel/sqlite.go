package channel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hupe1980/taskvoice/core"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS handoff_slots (
	key         TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	produced_at INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL,
	consumed    INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteChannel is a durable HandoffChannel backed by SQLite, letting two
// processes hand payloads to each other through a shared database file. The
// exactly-once guarantee rides on a single conditional UPDATE: whichever
// consumer flips the consumed flag first wins the row.
type SQLiteChannel struct {
	db         *sql.DB
	defaultTTL time.Duration
	clock      func() time.Time
}

// Open opens (or creates) a SQLite-backed channel at path using the pure-Go
// modernc driver.
func Open(path string, optFns ...func(o *Options)) (*SQLiteChannel, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite channel: %w", err)
	}
	return NewSQLiteChannel(db, optFns...)
}

// NewSQLiteChannel wraps an existing database handle, creating the schema if
// needed.
func NewSQLiteChannel(db *sql.DB, optFns ...func(o *Options)) (*SQLiteChannel, error) {
	opts := Options{DefaultTTL: DefaultTTL, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure handoff_slots schema: %w", err)
	}
	return &SQLiteChannel{db: db, defaultTTL: opts.DefaultTTL, clock: opts.Clock}, nil
}

// Close closes the underlying database handle.
func (c *SQLiteChannel) Close() error { return c.db.Close() }

// Publish upserts the payload at key, overwriting any unconsumed payload
// already there.
func (c *SQLiteChannel) Publish(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.clock().UTC()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO handoff_slots (key, payload, produced_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			produced_at = excluded.produced_at,
			expires_at = excluded.expires_at,
			consumed = 0`,
		key, payload, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return &core.StoreUnavailableError{Op: "publish", Err: err}
	}
	return nil
}

// Consume claims the payload at key. The conditional UPDATE flips the
// consumed flag only for a live, unconsumed row, so exactly one caller ever
// reads each published payload.
func (c *SQLiteChannel) Consume(ctx context.Context, key string) ([]byte, error) {
	now := c.clock().UTC().UnixNano()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE handoff_slots SET consumed = 1
		WHERE key = ? AND consumed = 0 AND expires_at >= ?`, key, now)
	if err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	if n == 0 {
		return nil, core.ErrNotFound
	}

	var payload []byte
	if err := tx.QueryRowContext(ctx, `SELECT payload FROM handoff_slots WHERE key = ?`, key).Scan(&payload); err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM handoff_slots WHERE key = ?`, key); err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &core.StoreUnavailableError{Op: "consume", Err: err}
	}
	return payload, nil
}

// Sweep deletes expired and already-consumed rows, returning how many were
// dropped.
func (c *SQLiteChannel) Sweep(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM handoff_slots WHERE consumed = 1 OR expires_at < ?`,
		c.clock().UTC().UnixNano())
	if err != nil {
		return 0, &core.StoreUnavailableError{Op: "sweep", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &core.StoreUnavailableError{Op: "sweep", Err: err}
	}
	return int(n), nil
}
