package setting

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/setting"
)

// SQLiteStore implements Store using the business_setting table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new settings store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// All returns every stored setting keyed by type.
// POST: Missing keys fall back to defaults through Values.Get
func (s *SQLiteStore) All(ctx context.Context) (domain.Values, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT type, value FROM business_setting")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	values := domain.Values{}
	for rows.Next() {
		var typ, value string
		if err := rows.Scan(&typ, &value); err != nil {
			return nil, err
		}
		values[typ] = value
	}
	return values, rows.Err()
}

// SaveMany upserts the given values in one transaction.
// PRE: values have passed domain.Normalize
// POST: Every key is stored with updated_at = now, or none is
func (s *SQLiteStore) SaveMany(ctx context.Context, values map[string]string, now time.Time) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, typ := range sortedKeys(values) {
			_, err := tx.ExecContext(ctx, `INSERT INTO business_setting (id, type, value, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(type) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
				uuid.NewString(), typ, values[typ], storage.FormatTime(now))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedDefaults inserts any missing defaults without touching existing rows.
// POST: Returns the number of rows inserted
func (s *SQLiteStore) SeedDefaults(ctx context.Context, defaults map[string]string, now time.Time) (int, error) {
	inserted := 0
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, typ := range sortedKeys(defaults) {
			res, err := tx.ExecContext(ctx, `INSERT INTO business_setting (id, type, value, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(type) DO NOTHING`,
				uuid.NewString(), typ, defaults[typ], storage.FormatTime(now))
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
