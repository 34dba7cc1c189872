package analysiscache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// storeSchemaVersion is the layout version of the sqlite tables. It is
// unrelated to the cache key schema version.
const storeSchemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible build.
var ErrSchemaMismatch = errors.New("cache schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteBackend stores entries in a single SQLite database file.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	backend := &SQLiteBackend{db: db, path: path}
	if err := backend.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

// Path returns the database file location.
func (s *SQLiteBackend) Path() string { return s.path }

func (s *SQLiteBackend) Name() string { return "sqlite" }

func (s *SQLiteBackend) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != storeSchemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild the cache)",
			ErrSchemaMismatch, version, storeSchemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteBackend) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", storeSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteBackend) exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	ctx = ensureContext(ctx)
	var (
		value           []byte
		stored, expires int64
		found           bool
	)
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			"SELECT value, stored_at, expires_at FROM cache_entries WHERE cache_key = ?", key)
		err := row.Scan(&value, &stored, &expires)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	if !found {
		return Entry{}, false, nil
	}
	return Entry{
		Key:       key,
		Value:     value,
		StoredAt:  fromUnixNano(stored),
		ExpiresAt: fromUnixNano(expires),
	}, true, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, entry Entry) error {
	_, err := s.exec(ctx,
		`INSERT INTO cache_entries (cache_key, value, stored_at, expires_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(cache_key) DO UPDATE SET
             value = excluded.value,
             stored_at = excluded.stored_at,
             expires_at = excluded.expires_at`,
		entry.Key, entry.Value, toUnixNano(entry.StoredAt), toUnixNano(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := s.exec(ctx, "DELETE FROM cache_entries WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Purge(ctx context.Context, now time.Time) (int, error) {
	n, err := s.exec(ctx,
		"DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?", now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteBackend) Clear(ctx context.Context) (int, error) {
	n, err := s.exec(ctx, "DELETE FROM cache_entries")
	if err != nil {
		return 0, fmt.Errorf("clear cache entries: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteBackend) Stats(ctx context.Context, now time.Time) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Backend: s.Name()}
	var bytes, oldest, newest sql.NullInt64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(1),
                    COALESCE(SUM(CASE WHEN expires_at > 0 AND expires_at <= ? THEN 1 ELSE 0 END), 0),
                    SUM(LENGTH(value)), MIN(stored_at), MAX(stored_at)
             FROM cache_entries`, now.UnixNano(),
		).Scan(&stats.Entries, &stats.Expired, &bytes, &oldest, &newest)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	stats.Bytes = bytes.Int64
	if oldest.Valid {
		stats.Oldest = fromUnixNano(oldest.Int64)
	}
	if newest.Valid {
		stats.Newest = fromUnixNano(newest.Int64)
	}
	return stats, nil
}

// Close closes the underlying database connection.
func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
