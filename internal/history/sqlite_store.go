package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edutenorio/FolderTracker/internal/db"
	"github.com/edutenorio/FolderTracker/internal/logging"
	"github.com/edutenorio/FolderTracker/internal/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    sync_key TEXT PRIMARY KEY -- KeyLayout, UTC
);

CREATE TABLE IF NOT EXISTS entries (
    snapshot_key TEXT NOT NULL REFERENCES snapshots(sync_key) ON DELETE CASCADE,
    path TEXT NOT NULL,
    type TEXT NOT NULL,
    ctime INTEGER NOT NULL, -- unix nanoseconds, 0 when unknown
    mtime INTEGER NOT NULL,
    size INTEGER NOT NULL,
    hash TEXT NOT NULL,
    PRIMARY KEY (snapshot_key, path)
);

CREATE INDEX IF NOT EXISTS idx_entries_snapshot ON entries(snapshot_key);
`

type dbEntry struct {
	SnapshotKey string `db:"snapshot_key"`
	Path        string `db:"path"`
	Type        string `db:"type"`
	CTime       int64  `db:"ctime"`
	MTime       int64  `db:"mtime"`
	Size        int64  `db:"size"`
	Hash        string `db:"hash"`
}

func toRow(key, path string, e snapshot.Entry) dbEntry {
	return dbEntry{
		SnapshotKey: key,
		Path:        path,
		Type:        string(e.Type),
		CTime:       toNanos(e.CTime),
		MTime:       toNanos(e.MTime),
		Size:        e.Size,
		Hash:        e.Hash,
	}
}

func (r dbEntry) entry() snapshot.Entry {
	return snapshot.Entry{
		Type:  snapshot.EntryType(r.Type),
		CTime: fromNanos(r.CTime),
		MTime: fromNanos(r.MTime),
		Size:  r.Size,
		Hash:  r.Hash,
	}
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// SQLiteStore keeps one row per snapshot and one row per entry.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
	log  logging.Logger
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(path string, log logging.Logger) (*SQLiteStore, error) {
	log = logging.OrNop(log)
	conn, err := db.NewSqliteDB(db.WithPath(path), db.WithMaxOpenConns(1), db.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &SQLiteStore{db: conn, path: path, log: log}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*History, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT sync_key FROM snapshots ORDER BY sync_key"); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snaps := make(map[string]snapshot.FolderState, len(keys))
	for _, k := range keys {
		snaps[k] = make(snapshot.FolderState)
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT snapshot_key, path, type, ctime, mtime, size, hash FROM entries")
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r dbEntry
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if state, ok := snaps[r.SnapshotKey]; ok {
			state[r.Path] = r.entry()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	s.log.Debug("history loaded", "path", s.path, "snapshots", len(keys))
	return FromSnapshots(snaps)
}

// Append writes one snapshot in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, key string, state snapshot.FolderState) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertSnapshot(ctx, tx, key, state)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE snapshot_key = ?", key); err != nil {
			return fmt.Errorf("deleting entries of %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE sync_key = ?", key); err != nil {
			return fmt.Errorf("deleting snapshot %s: %w", key, err)
		}
		return nil
	})
}

// Replace swaps the stored history for h.
func (s *SQLiteStore) Replace(ctx context.Context, h *History) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
			return fmt.Errorf("clearing entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
			return fmt.Errorf("clearing snapshots: %w", err)
		}
		for _, key := range h.Keys() {
			state, _ := h.Get(key)
			if err := insertSnapshot(ctx, tx, key, state); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertSnapshot(ctx context.Context, tx *sqlx.Tx, key string, state snapshot.FolderState) error {
	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO snapshots (sync_key) VALUES (?)", key); err != nil {
		return fmt.Errorf("inserting snapshot %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE snapshot_key = ?", key); err != nil {
		return fmt.Errorf("clearing entries of %s: %w", key, err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO entries (snapshot_key, path, type, ctime, mtime, size, hash)
		VALUES (:snapshot_key, :path, :type, :ctime, :mtime, :size, :hash)`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for _, path := range state.Paths() {
		if _, err := stmt.ExecContext(ctx, toRow(key, path, state[path])); err != nil {
			return fmt.Errorf("inserting entry %s: %w", path, err)
		}
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
