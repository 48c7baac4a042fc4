package role

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/role"
)

const columns = "id, name, permissions, created_at"

// SQLiteStore implements Store using SQLite. Permissions are a JSON array column.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new role store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a role by its ID.
// PRE: id is non-empty
// POST: Returns the role or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Role, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM role WHERE id = ?", id)
	r, err := scanRole(row.Scan)
	return r, storage.NotFound("role", err)
}

// Save inserts or updates a role.
// PRE: r has been validated
// POST: Role is persisted; a duplicate name returns a unique violation
func (s *SQLiteStore) Save(ctx context.Context, r domain.Role) error {
	perms, err := json.Marshal(domain.Normalize(r.Permissions))
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO role (`+columns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, permissions=excluded.permissions`,
		r.ID, r.Name, string(perms), storage.FormatTime(r.CreatedAt))
	return err
}

// Delete removes a role that no staff account references.
// PRE: id is non-empty
// POST: Returns domain.ErrInUse when staff still hold the role
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var inUse int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff_account WHERE role_id = ?", id).Scan(&inUse); err != nil {
			return err
		}
		if inUse > 0 {
			return domain.ErrInUse
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM role WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return storage.NotFound("role", sql.ErrNoRows)
		}
		return nil
	})
}

// Count returns the number of roles matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := storage.NewWhere().Search(f.Search, "name")
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of roles matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Role, error) {
	w := storage.NewWhere().Search(f.Search, "name")
	query := "SELECT " + columns + " FROM role" + w.SQL() + storage.OrderBy(f.Sort, f.Dir, SortColumns, "name ASC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)
	return s.query(ctx, query+page, args...)
}

// All returns every role ordered by name, for select boxes.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.Role, error) {
	return s.query(ctx, "SELECT "+columns+" FROM role ORDER BY name")
}

// StaffCounts returns the number of staff accounts per role ID.
func (s *SQLiteStore) StaffCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role_id, COUNT(*) FROM staff_account WHERE role_id IS NOT NULL GROUP BY role_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []domain.Role
	for rows.Next() {
		r, err := scanRole(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanRole(scan func(dest ...any) error) (domain.Role, error) {
	var r domain.Role
	var perms, createdAt string
	if err := scan(&r.ID, &r.Name, &perms, &createdAt); err != nil {
		return domain.Role{}, err
	}
	if err := json.Unmarshal([]byte(perms), &r.Permissions); err != nil {
		return domain.Role{}, fmt.Errorf("decode permissions for role %s: %w", r.ID, err)
	}
	r.CreatedAt, _ = storage.ParseTime(createdAt)
	return r, nil
}
