package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps JSON-encoded search and ETA results for a limited time.
type Store interface {
	// Get decodes the entry for key into dst and reports whether a live
	// entry was found.
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
	Close() error
}

// SearchKey identifies one search. Addresses compare case-insensitively.
func SearchKey(query, address, pincode string) string {
	return fmt.Sprintf("search_%s_%s_%s", query, normAddress(address), strings.TrimSpace(pincode))
}

// ETAKey identifies the ETA set for one delivery location.
func ETAKey(address, pincode string) string {
	return fmt.Sprintf("eta_%s_%s", normAddress(address), strings.TrimSpace(pincode))
}

func normAddress(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func (c *SQLite) Get(ctx context.Context, key string, dst any) bool {
	var data string
	var expiresAt int64

	err := c.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM entries WHERE key = ?`,
		key,
	).Scan(&data, &expiresAt)

	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("Cache: failed to read %s: %v", key, err)
		}
		return false
	}

	if c.now().UnixNano() >= expiresAt {
		return false
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		log.Printf("Cache: failed to unmarshal %s: %v", key, err)
		return false
	}

	return true
}

func (c *SQLite) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Cache: failed to marshal %s: %v", key, err)
		return
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO entries (key, data, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key)
		 DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, string(data), c.now().Add(ttl).UnixNano(),
	)
	if err != nil {
		log.Printf("Cache: failed to store %s: %v", key, err)
	}
}

// Purge deletes expired entries and returns how many were removed.
func (c *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *SQLite) Close() error {
	return c.db.Close()
}
