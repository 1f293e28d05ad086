// Package store keeps a history of renders in a SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the catalog schema written by this build.
const SchemaVersion = "1"

const driverName = "sqlite"

// Render is one row of render history.
type Render struct {
	ID         int64
	Source     string
	Hash       string
	SampleRate int
	Frames     int
	BitDepth   int
	Peak       float64
	Output     string
	CacheHit   bool
	CreatedAt  time.Time
}

// Catalog is a SQLite-backed render history.
type Catalog struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			hash TEXT NOT NULL,
			sample_rate INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			bit_depth INTEGER NOT NULL,
			peak REAL NOT NULL,
			output TEXT NOT NULL,
			cache_hit INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog tables: %w", err)
	}

	c := &Catalog{db: db, now: time.Now}

	version, err := c.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := c.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported catalog schema version: %s (expected %s)", version, SchemaVersion)
	}

	return c, nil
}

// Record appends r to the history and returns its id. A zero CreatedAt is
// set to the current time.
func (c *Catalog) Record(r Render) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = c.now()
	}
	res, err := c.db.Exec(`
		INSERT INTO renders (source, hash, sample_rate, frames, bit_depth, peak, output, cache_hit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Source, r.Hash, r.SampleRate, r.Frames, r.BitDepth, r.Peak, r.Output, r.CacheHit, r.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("record render: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to n renders, newest first.
func (c *Catalog) Recent(n int) ([]Render, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`
		SELECT id, source, hash, sample_rate, frames, bit_depth, peak, output, cache_hit, created_at
		FROM renders ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		var r Render
		var created int64
		if err := rows.Scan(&r.ID, &r.Source, &r.Hash, &r.SampleRate, &r.Frames,
			&r.BitDepth, &r.Peak, &r.Output, &r.CacheHit, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created)
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

// GetMetadata retrieves a metadata value by key, or "" if unset.
func (c *Catalog) GetMetadata(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getMetadataUnlocked(key)
}

func (c *Catalog) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (c *Catalog) setMetadataUnlocked(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (c *Catalog) Close() error {
	return c.db.Close()
}
