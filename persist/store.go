package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jonwraymond/apicache/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_records (
	collection_name TEXT NOT NULL,
	primary_key     TEXT NOT NULL,
	data            BLOB NOT NULL,
	created_at      INTEGER NOT NULL,
	expires_at      INTEGER,
	PRIMARY KEY (collection_name, primary_key)
);
CREATE INDEX IF NOT EXISTS idx_cache_records_expires_at ON cache_records (expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_records_created_at ON cache_records (created_at);
`

// Options configures a Store.
type Options struct {
	// BusyTimeout is how long SQLite waits on a locked database before
	// failing. Default: 5s.
	BusyTimeout time.Duration
}

// Record is a stored row: the serialized payload plus its lifecycle
// timestamps. ExpiresAt is the zero time for records that never expire.
type Record struct {
	Collection string
	PrimaryKey string
	Data       []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the record's freshness window has passed as of now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store is a durable keyed record store backed by a single SQLite file.
//
// Contract:
// - Concurrency: safe for concurrent use. Mutations serialize through one
//   writer lock; reads run concurrently under WAL journaling.
// - Ownership: at most one Store per backing file.
// - Durability: writes commit before the call returns.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex // serializes mutating statements
	closed atomic.Bool
}

// Open initializes or opens a store at the given path. The path ":memory:"
// opens a transient in-memory database.
func Open(path string, opts Options) (*Store, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(FULL)",
		path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. Further operations return ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// PutRecord upserts the payload under (collection, pk). An existing record
// is overwritten unconditionally; its creation time and expiry are reset.
func (s *Store) PutRecord(ctx context.Context, collection, pk string, data []byte, exp cache.Expiration) error {
	if collection == "" || pk == "" {
		return ErrInvalidRecord
	}
	if s.closed.Load() {
		return ErrClosed
	}

	now := time.Now()
	var expiresAt sql.NullInt64
	if at, ok := exp.ExpireTime(now); ok {
		expiresAt = sql.NullInt64{Int64: at.Unix(), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_records (collection_name, primary_key, data, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection_name, primary_key) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		collection, pk, data, now.Unix(), expiresAt)
	if err != nil {
		return fmt.Errorf("persist: put %s/%s: %w", collection, pk, err)
	}
	return nil
}

// GetRecord returns the live payload for (collection, pk). A record found
// expired is deleted as a side effect and reported as ErrExpired, distinct
// from ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, collection, pk string) ([]byte, error) {
	rec, err := s.Record(ctx, collection, pk)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if rec.Expired(now) {
		// Guarded delete: only removes the row if it is still expired, so a
		// concurrent overwrite with a fresh expiry is left alone.
		s.mu.Lock()
		_, delErr := s.db.ExecContext(ctx, `
			DELETE FROM cache_records
			WHERE collection_name = ? AND primary_key = ?
			  AND expires_at IS NOT NULL AND expires_at <= ?`,
			collection, pk, now.Unix())
		s.mu.Unlock()
		if delErr != nil {
			return nil, fmt.Errorf("persist: reclaim %s/%s: %w", collection, pk, delErr)
		}
		return nil, ErrExpired
	}

	return rec.Data, nil
}

// Record returns the stored row for (collection, pk) without side effects:
// expired records are returned as-is. Callers deciding on stale fallback
// read through Record.
func (s *Store) Record(ctx context.Context, collection, pk string) (Record, error) {
	if collection == "" || pk == "" {
		return Record{}, ErrInvalidRecord
	}
	if s.closed.Load() {
		return Record{}, ErrClosed
	}

	var (
		data      []byte
		createdAt int64
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT data, created_at, expires_at FROM cache_records
		WHERE collection_name = ? AND primary_key = ?`,
		collection, pk).Scan(&data, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("persist: get %s/%s: %w", collection, pk, err)
	}

	rec := Record{
		Collection: collection,
		PrimaryKey: pk,
		Data:       data,
		CreatedAt:  time.Unix(createdAt, 0),
	}
	if expiresAt.Valid {
		rec.ExpiresAt = time.Unix(expiresAt.Int64, 0)
	}
	return rec, nil
}

// Remove deletes the record for (collection, pk). Idempotent.
func (s *Store) Remove(ctx context.Context, collection, pk string) error {
	if collection == "" || pk == "" {
		return ErrInvalidRecord
	}
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cache_records WHERE collection_name = ? AND primary_key = ?`,
		collection, pk)
	if err != nil {
		return fmt.Errorf("persist: remove %s/%s: %w", collection, pk, err)
	}
	return nil
}

// ClearExpired bulk-deletes every record whose expiry has passed and returns
// the count removed. The delete is a single atomic statement.
func (s *Store) ClearExpired(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cache_records
		WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("persist: clear expired: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every record. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_records`); err != nil {
		return fmt.Errorf("persist: clear: %w", err)
	}
	return nil
}

// Count returns the number of stored records, expired or not.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("persist: count: %w", err)
	}
	return n, nil
}
