package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultMaxAttempts bounds how often a failing input is claimed again.
const DefaultMaxAttempts = 3

type sqliteLedger struct {
	db          *sql.DB
	maxAttempts int
}

// Open opens (or creates) the SQLite ledger at dbPath. Entries left in the
// processing state by a previous run are marked failed so they can be retried.
// A failed key is reclaimed until it has been attempted maxAttempts times
// (DefaultMaxAttempts when maxAttempts <= 0).
func Open(ctx context.Context, dbPath string, maxAttempts int) (Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	l := &sqliteLedger{db: db, maxAttempts: maxAttempts}
	if err := l.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE processed SET status = ? WHERE status = ?`, StatusFailed, StatusProcessing,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("reset stale entries: %w", err)
	}

	return l, nil
}

func (l *sqliteLedger) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed (
		key         TEXT PRIMARY KEY,
		source_path TEXT NOT NULL,
		session_id  TEXT NOT NULL,
		status      TEXT NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 1,
		updated_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS uploads (
		path         TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL,
		max_speakers INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		created_at   DATETIME NOT NULL
	);
	`
	_, err := l.db.ExecContext(ctx, schema)
	return err
}

func (l *sqliteLedger) Claim(ctx context.Context, key, sourcePath, sessionID string) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO processed (key, source_path, session_id, status, attempts, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   status = excluded.status,
		   source_path = excluded.source_path,
		   attempts = processed.attempts + 1,
		   updated_at = excluded.updated_at
		 WHERE processed.status = ? AND processed.attempts < ?`,
		key, sourcePath, sessionID, StatusProcessing, time.Now().UTC(), StatusFailed, l.maxAttempts,
	)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return n == 1, nil
}

func (l *sqliteLedger) MarkDone(ctx context.Context, key string) error {
	return l.setStatus(ctx, key, StatusDone)
}

func (l *sqliteLedger) MarkFailed(ctx context.Context, key string) error {
	return l.setStatus(ctx, key, StatusFailed)
}

func (l *sqliteLedger) setStatus(ctx context.Context, key, status string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE processed SET status = ?, updated_at = ? WHERE key = ?`,
		status, time.Now().UTC(), key,
	)
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", key, status, err)
	}
	return nil
}

func (l *sqliteLedger) RegisterUpload(ctx context.Context, u Upload) error {
	path, err := normalizePath(u.Path)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploads (path, session_id, max_speakers, kind, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		path, u.SessionID, u.MaxSpeakers, u.Kind, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("register upload %s: %w", path, err)
	}
	return nil
}

func (l *sqliteLedger) LookupUpload(ctx context.Context, path string) (Upload, bool, error) {
	norm, err := normalizePath(path)
	if err != nil {
		return Upload{}, false, err
	}

	var u Upload
	err = l.db.QueryRowContext(ctx,
		`SELECT path, session_id, max_speakers, kind, created_at FROM uploads WHERE path = ?`, norm,
	).Scan(&u.Path, &u.SessionID, &u.MaxSpeakers, &u.Kind, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, false, nil
	}
	if err != nil {
		return Upload{}, false, fmt.Errorf("lookup upload %s: %w", norm, err)
	}
	return u, true, nil
}

func (l *sqliteLedger) Close() error {
	return l.db.Close()
}

func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
