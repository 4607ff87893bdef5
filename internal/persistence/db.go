// Package persistence stores the settlement catalog, road networks and
// character locations in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("persistence: not found")

// DB wraps a SQLite connection for catalog and road storage.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open db: empty path")
	}
	// modernc.org/sqlite applies _pragma entries on every new connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time keeps the insert-if-absent path serial.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settlements (
		campaign_seed TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		pos_x REAL,
		pos_y REAL,
		PRIMARY KEY (campaign_seed, id)
	);

	CREATE TABLE IF NOT EXISTS roads (
		id TEXT PRIMARY KEY,
		campaign_seed TEXT NOT NULL,
		from_settlement_id TEXT NOT NULL,
		from_settlement_name TEXT NOT NULL,
		to_settlement_id TEXT NOT NULL,
		to_settlement_name TEXT NOT NULL,
		from_x REAL NOT NULL,
		from_y REAL NOT NULL,
		to_x REAL NOT NULL,
		to_y REAL NOT NULL,
		polyline_json TEXT NOT NULL,
		terrain_profile BLOB NOT NULL,
		length REAL NOT NULL,
		average_traversal_cost REAL NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_roads_pair ON roads(
		campaign_seed,
		min(from_settlement_id, to_settlement_id),
		max(from_settlement_id, to_settlement_id)
	);

	CREATE TABLE IF NOT EXISTS character_locations (
		character_id TEXT PRIMARY KEY,
		campaign_seed TEXT NOT NULL,
		pos_x REAL NOT NULL,
		pos_y REAL NOT NULL,
		snapshot BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settlements_name ON settlements(campaign_seed, name);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Counts summarizes what the database holds.
type Counts struct {
	Campaigns   int `json:"campaigns" db:"campaigns"`
	Settlements int `json:"settlements" db:"settlements"`
	Roads       int `json:"roads" db:"roads"`
	Characters  int `json:"characters" db:"characters"`
}

// Counts returns row totals across every campaign.
func (db *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := db.conn.GetContext(ctx, &c, `SELECT
		(SELECT COUNT(DISTINCT campaign_seed) FROM settlements) AS campaigns,
		(SELECT COUNT(*) FROM settlements) AS settlements,
		(SELECT COUNT(*) FROM roads) AS roads,
		(SELECT COUNT(*) FROM character_locations) AS characters`)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}
