package storage

import (
	"database/sql"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// getTableNames returns sorted table names, excluding internal and goose tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version'")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db := openTestDB(t)
	want := []string{
		"audit_event", "banner", "business_setting", "category", "category_translation",
		"contact", "flash_deal", "flash_deal_product", "flash_deal_translation",
		"product", "product_stock", "product_translation", "review", "role",
		"seller_package", "seller_package_translation", "staff_account", "upload",
	}
	if diff := cmp.Diff(want, getTableNames(t, db)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}

// TestMigrate_Idempotent verifies a second run is a no-op.
func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)
	var on int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
		t.Fatal(err)
	}
	if on != 1 {
		t.Fatalf("foreign_keys = %d, want 1", on)
	}
	_, err := db.Exec("INSERT INTO product_stock (id, product_id) VALUES ('s1', 'missing')")
	if err == nil {
		t.Error("expected foreign key violation for dangling product_id")
	}
}

func TestConstraintErrors(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec("INSERT INTO role (id, name, created_at) VALUES ('r1', 'Editors', 'x')"); err != nil {
		t.Fatal(err)
	}
	_, err := db.Exec("INSERT INTO role (id, name, created_at) VALUES ('r2', 'Editors', 'x')")
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
	_, err = db.Exec("INSERT INTO review (id, product_id, customer_name, rating, created_at) VALUES ('v', 'nope', 'x', 3, 'x')")
	if !IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = false", err)
	}
	if IsUniqueViolation(nil) || IsForeignKeyViolation(nil) {
		t.Error("nil error reported as violation")
	}
}
