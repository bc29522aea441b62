// Package cache is the persistent compiled-kernel manifest: a
// database/sql-backed table recording which content hashes have a
// compiled shared object on disk, surviving process restarts (unlike
// internal/jit's in-process map, which is rebuilt from this manifest
// on first use of each hash). Adapted from the connection-pool
// management shape of a database manager: one registry guarded by a
// single mutex, pluggable driver, connect-once-reuse-many.
package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry is one row of the manifest: a compiled kernel's identity and
// where its shared object lives on disk.
type Entry struct {
	Hash          string
	EngineVersion string
	FuncName      string
	SOPath        string
	CreatedAt     time.Time
	LastUsedAt    time.Time
}

// Manifest is a pluggable-backend SQL store for compiled-kernel
// metadata. The zero value is not usable; construct with Open.
type Manifest struct {
	mu sync.Mutex
	db *sql.DB
}

func driverName(kind string) (string, error) {
	switch kind {
	case "sqlite", "sqlite3", "":
		return "sqlite", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("cache: unsupported backend %q", kind)
	}
}

// Open connects to the named backend ("sqlite", "postgres", "mysql",
// "mssql") at dsn and ensures the manifest schema exists. An empty
// kind defaults to sqlite, matching the default backend a single-host
// CLI run should need no external setup to use.
func Open(kind, dsn string) (*Manifest, error) {
	driver, err := driverName(kind)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: connect: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m := &Manifest{db: db}
	if err := m.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manifest) ensureSchema() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS kernel_cache (
	hash            TEXT PRIMARY KEY,
	engine_version  TEXT NOT NULL,
	func_name       TEXT NOT NULL,
	so_path         TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL,
	last_used_at    TIMESTAMP NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("cache: ensure schema: %w", err)
	}
	return nil
}

// Put records a newly compiled kernel, overwriting any prior entry for
// the same hash (a codegen change that somehow reuses a hash should
// win over a stale row rather than be silently ignored).
func (m *Manifest) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := e.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := m.db.Exec(`
DELETE FROM kernel_cache WHERE hash = ?`, e.Hash)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	_, err = m.db.Exec(`
INSERT INTO kernel_cache (hash, engine_version, func_name, so_path, created_at, last_used_at)
VALUES (?, ?, ?, ?, ?, ?)`, e.Hash, e.EngineVersion, e.FuncName, e.SOPath, now, now)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Get looks up hash, returning (Entry{}, false, nil) on a clean miss.
func (m *Manifest) Get(hash string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := m.db.QueryRow(`
SELECT hash, engine_version, func_name, so_path, created_at, last_used_at
FROM kernel_cache WHERE hash = ?`, hash)

	var e Entry
	if err := row.Scan(&e.Hash, &e.EngineVersion, &e.FuncName, &e.SOPath, &e.CreatedAt, &e.LastUsedAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("cache: get: %w", err)
	}
	return e, true, nil
}

// Touch updates an entry's last-used timestamp, used by Prune to find
// cold entries without needing a separate access log.
func (m *Manifest) Touch(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.db.Exec(`UPDATE kernel_cache SET last_used_at = ? WHERE hash = ?`, time.Now(), hash)
	if err != nil {
		return fmt.Errorf("cache: touch: %w", err)
	}
	return nil
}

// Prune deletes every entry not used since cutoff, returning the
// deleted hashes so the caller can also remove the backing shared
// objects from disk.
func (m *Manifest) Prune(cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.db.Query(`SELECT hash FROM kernel_cache WHERE last_used_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("cache: prune: %w", err)
	}
	var stale []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cache: prune: %w", err)
		}
		stale = append(stale, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: prune: %w", err)
	}
	rows.Close()

	if _, err := m.db.Exec(`DELETE FROM kernel_cache WHERE last_used_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("cache: prune: %w", err)
	}
	return stale, nil
}

// Close releases the underlying database connection pool.
func (m *Manifest) Close() error {
	return m.db.Close()
}
