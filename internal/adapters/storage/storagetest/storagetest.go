// Package storagetest opens migrated in-memory databases for store tests.
package storagetest

import (
	"database/sql"
	"testing"
	"time"

	"marketadmin/internal/adapters/storage"
)

// OpenDB returns a migrated :memory: database closed at test cleanup.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// Exec runs a fixture statement, failing the test on error.
func Exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("fixture %q: %v", query, err)
	}
}

// Count returns SELECT COUNT(*) for the given table and optional condition.
func Count(t testing.TB, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// Now is a fixed timestamp used by fixtures.
var Now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// Upload inserts an upload row with the given id.
func Upload(t testing.TB, db *sql.DB, id string) {
	t.Helper()
	Exec(t, db, `INSERT INTO upload (id, file_original_name, file_name, file_size, extension, type, created_at)
		VALUES (?, ?, ?, 10, 'png', 'image', ?)`, id, id+".png", "all/"+id+".png", storage.FormatTime(Now))
}

// Product inserts a minimal product row.
func Product(t testing.TB, db *sql.DB, id, name string, price float64) {
	t.Helper()
	Exec(t, db, `INSERT INTO product (id, name, slug, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, name, id, price, storage.FormatTime(Now), storage.FormatTime(Now))
}
