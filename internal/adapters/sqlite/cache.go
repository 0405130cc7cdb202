// Package sqlite implements the catalog warm cache on SQLite. Hydration
// reads lightweight sessions back without touching the source trees, and
// the persisted signature baseline lets the first post-hydrate refresh
// run as an incremental delta instead of a full rescan.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sessionkeeper/internal/domain"
	"sessionkeeper/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Cache implements ports.CatalogCache using SQLite.
type Cache struct {
	db     *sql.DB
	dbPath string
}

var _ ports.CatalogCache = (*Cache)(nil)

// NewCache creates an unopened cache.
func NewCache() *Cache {
	return &Cache{}
}

// Open initializes the cache database at the given path, creating parent
// directories as needed. A schema version mismatch drops and recreates
// the tables; everything in the cache can be rebuilt from the sources.
func (c *Cache) Open(cachePath string) error {
	c.dbPath = cachePath

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", cachePath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	c.db = db

	// Performance pragmas + schema in a single batch.
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -32000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS sessions (
			source TEXT NOT NULL,
			id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			started_at INTEGER,
			ended_at INTEGER,
			model TEXT,
			event_count INTEGER NOT NULL,
			cwd TEXT,
			repo TEXT,
			summary TEXT,
			PRIMARY KEY (source, id)
		);
		CREATE TABLE IF NOT EXISTS signatures (
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			mtime_ns INTEGER NOT NULL,
			size INTEGER NOT NULL,
			PRIMARY KEY (source, path)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_path ON sessions(source, file_path);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup cache database: %w", err)
	}

	var version string
	db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if version != "" && version != schemaVersion {
		if _, err := db.Exec(`DELETE FROM sessions; DELETE FROM signatures;`); err != nil {
			db.Close()
			return fmt.Errorf("failed to reset stale cache: %w", err)
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update cache metadata: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// LoadSessions returns the cached lightweight sessions for a source,
// most recent first.
func (c *Cache) LoadSessions(source domain.Source) ([]*domain.Session, error) {
	rows, err := c.db.Query(`
		SELECT id, file_path, file_size, started_at, ended_at, model, event_count, cwd, repo, summary
		FROM sessions WHERE source = ?
	`, source.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var s domain.Session
		var startedAt, endedAt sql.NullInt64
		var model, cwd, repo, summary sql.NullString
		if err := rows.Scan(&s.ID, &s.FilePath, &s.FileSize, &startedAt, &endedAt,
			&model, &s.EventCount, &cwd, &repo, &summary); err != nil {
			return nil, err
		}
		s.Source = source
		if startedAt.Valid {
			s.StartedAt = time.Unix(0, startedAt.Int64)
		}
		if endedAt.Valid {
			s.EndedAt = time.Unix(0, endedAt.Int64)
		}
		s.Model = model.String
		s.CWD = cwd.String
		s.Repo = repo.String
		s.Summary = summary.String
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	domain.SortByRecency(sessions)
	return sessions, nil
}

// StoreSessions replaces the cached sessions for a source in one
// transaction.
func (c *Cache) StoreSessions(source domain.Source, sessions []*domain.Session) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE source = ?`, source.String()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sessions (source, id, file_path, file_size, started_at, ended_at, model, event_count, cwd, repo, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.Exec(source.String(), s.ID, s.FilePath, s.FileSize,
			nullTime(s.StartedAt), nullTime(s.EndedAt), nullString(s.Model),
			s.EventCount, nullString(s.CWD), nullString(s.Repo), nullString(s.Summary)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadSignatures returns the persisted signature baseline for a source.
func (c *Cache) LoadSignatures(source domain.Source) (map[string]domain.FileSignature, error) {
	rows, err := c.db.Query(`SELECT path, mtime_ns, size FROM signatures WHERE source = ?`, source.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sigs := make(map[string]domain.FileSignature)
	for rows.Next() {
		var path string
		var sig domain.FileSignature
		if err := rows.Scan(&path, &sig.MtimeNS, &sig.Size); err != nil {
			return nil, err
		}
		sigs[path] = sig
	}
	return sigs, rows.Err()
}

// StoreSignatures replaces the persisted baseline for a source.
func (c *Cache) StoreSignatures(source domain.Source, sigs map[string]domain.FileSignature) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM signatures WHERE source = ?`, source.String()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO signatures (source, path, mtime_ns, size) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for path, sig := range sigs {
		if _, err := stmt.Exec(source.String(), path, sig.MtimeNS, sig.Size); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// nullString returns nil for empty strings (for nullable columns).
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullTime returns nil for zero times, unix nanoseconds otherwise.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}
