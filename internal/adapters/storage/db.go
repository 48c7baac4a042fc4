package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// dsnPragmas are applied to every pooled connection by the modernc driver.
const dsnPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

// Open opens the SQLite database at path with WAL, busy timeout and foreign keys enabled.
// PRE: path is a file path or ":memory:"
// POST: Returns a pinged connection pool
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func initGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("sqlite3")
}

// Migrate applies all pending embedded migrations.
// PRE: db is a valid database connection
// POST: Schema is at the latest version
func Migrate(db *sql.DB) error {
	if err := initGoose(); err != nil {
		return err
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrationStatus prints the applied/pending state of every migration through goose's logger.
func MigrationStatus(db *sql.DB) error {
	if err := initGoose(); err != nil {
		return err
	}
	return goose.Status(db, migrationsDir)
}

// SchemaVersion returns the current goose version of db.
func SchemaVersion(db *sql.DB) (int64, error) {
	if err := initGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
