// Package history keeps every raw listing we scraped so prices can be looked
// at per platform later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quick-compare/pkg/models"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			quantity TEXT,
			platform TEXT,
			price TEXT,
			product_url TEXT,
			image_url TEXT,
			in_stock BOOLEAN,
			scraped_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_platform ON products(platform)`,
		`CREATE INDEX IF NOT EXISTS idx_products_scraped_at ON products(scraped_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: init schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Save stores listings in a single transaction. Listings without a scrape
// time are stamped with the current time.
func (s *Store) Save(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (name, quantity, platform, price, product_url, image_url, in_stock, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, l := range listings {
		at := l.ScrapedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx,
			l.Name, l.Quantity, strings.ToLower(l.Platform), l.Price,
			l.ProductURL, l.ImageURL, l.InStock, at.UnixNano(),
		); err != nil {
			return fmt.Errorf("history: insert %s %q: %w", l.Platform, l.Name, err)
		}
	}

	return tx.Commit()
}

// ByPlatform returns the newest listings of one platform scraped after
// since. A zero since means no lower bound.
func (s *Store) ByPlatform(ctx context.Context, platform models.Platform, since time.Time, limit int) ([]models.Listing, error) {
	var after int64
	if !since.IsZero() {
		after = since.UnixNano()
	}
	return s.query(ctx, `
		SELECT name, quantity, platform, price, product_url, image_url, in_stock, scraped_at
		FROM products WHERE platform = ? AND scraped_at > ?
		ORDER BY scraped_at DESC, id DESC LIMIT ?`, platform.Key(), after, limit)
}

// Cleanup deletes listings scraped before cutoff.
func (s *Store) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE scraped_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		var l models.Listing
		var name, qty, price, productURL, imageURL sql.NullString
		var scrapedAt int64
		if err := rows.Scan(&name, &qty, &l.Platform, &price, &productURL, &imageURL, &l.InStock, &scrapedAt); err != nil {
			return nil, err
		}
		l.Name, l.Quantity, l.Price = name.String, qty.String, price.String
		l.ProductURL, l.ImageURL = productURL.String, imageURL.String
		l.ScrapedAt = time.Unix(0, scrapedAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
