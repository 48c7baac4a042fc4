package staff

import (
	"context"
	"database/sql"
	"strings"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/staff"
)

const columns = "id, name, email, password_hash, user_type, role_id, status, failed_logins, locked_until, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new staff store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an account by its ID.
// PRE: id is non-empty
// POST: Returns the account or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM staff_account WHERE id = ?", id)
	a, err := scanAccount(row.Scan)
	return a, storage.NotFound("staff account", err)
}

// GetByEmail retrieves an account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the account or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM staff_account WHERE email = ? COLLATE NOCASE",
		strings.TrimSpace(email))
	a, err := scanAccount(row.Scan)
	return a, storage.NotFound("staff account", err)
}

// Save inserts or updates an account.
// PRE: a has been validated
// POST: Account is persisted; a duplicate email returns a unique violation
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO staff_account (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			email=excluded.email,
			password_hash=excluded.password_hash,
			user_type=excluded.user_type,
			role_id=excluded.role_id,
			status=excluded.status,
			failed_logins=excluded.failed_logins,
			locked_until=excluded.locked_until`,
		a.ID, a.Name, strings.ToLower(strings.TrimSpace(a.Email)), a.PasswordHash, a.UserType,
		storage.NullString(a.RoleID), a.Status, a.FailedLogins, storage.NullTime(a.LockedUntil),
		storage.FormatTime(a.CreatedAt))
	return err
}

// Delete removes an account.
// PRE: id is non-empty
// POST: Account is removed; a missing row returns a wrapped sql.ErrNoRows
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM staff_account WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFound("staff account", sql.ErrNoRows)
	}
	return nil
}

func listWhere(f ListFilter) *storage.Where {
	return storage.NewWhere().
		Search(f.Search, "name", "email").
		EqIf("role_id", f.RoleID).
		EqIf("status", f.Status).
		EqIf("user_type", f.UserType)
}

// Count returns the number of accounts matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff_account"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of accounts matching the filter.
// PRE: f.Sort has been checked against SortColumns or is empty
// POST: Returns at most f.Limit accounts
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Account, error) {
	w := listWhere(f)
	query := "SELECT " + columns + " FROM staff_account" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "created_at DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var roleID, lockedUntil sql.NullString
	var createdAt string
	err := scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.UserType, &roleID, &a.Status,
		&a.FailedLogins, &lockedUntil, &createdAt)
	if err != nil {
		return domain.Account{}, err
	}
	a.RoleID = roleID.String
	a.LockedUntil = storage.ParseNullTime(lockedUntil)
	a.CreatedAt, _ = storage.ParseTime(createdAt)
	return a, nil
}
