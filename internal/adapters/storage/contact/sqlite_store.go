package contact

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/contact"
)

const columns = "id, name, email, phone, content, reply, replied_at, viewed, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new contact store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func scanContact(scan func(dest ...any) error) (domain.Contact, error) {
	var c domain.Contact
	var repliedAt time.Time
	err := scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Content, &c.Reply,
		storage.TimeDest(&repliedAt), &c.Viewed, storage.TimeDest(&c.CreatedAt))
	if err != nil {
		return domain.Contact{}, err
	}
	if !repliedAt.IsZero() {
		c.RepliedAt = &repliedAt
	}
	return c, nil
}

// GetByID retrieves a contact message.
// POST: Returns the contact or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Contact, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM contact WHERE id = ?", id)
	c, err := scanContact(row.Scan)
	return c, storage.NotFound("contact", err)
}

func listWhere(f ListFilter) *storage.Where {
	w := storage.NewWhere().
		Search(f.Search, "name", "email", "content").
		BoolIf("viewed", f.Viewed)
	switch strings.ToLower(f.Replied) {
	case "yes", "1":
		w.Raw("replied_at IS NOT NULL")
	case "no", "0":
		w.Raw("replied_at IS NULL")
	}
	return w
}

// Count returns the number of contacts matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contact"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of contacts matching the filter, newest first by default.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Contact, error) {
	w := listWhere(f)
	query := "SELECT " + columns + " FROM contact" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "created_at DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save inserts a contact message.
func (s *SQLiteStore) Save(ctx context.Context, c domain.Contact) error {
	var repliedAt any
	if c.RepliedAt != nil {
		repliedAt = storage.FormatTime(*c.RepliedAt)
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO contact ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Email, c.Phone, c.Content, c.Reply, repliedAt, storage.Bool(c.Viewed), storage.FormatTime(c.CreatedAt))
	return err
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFound("contact", sql.ErrNoRows)
	}
	return nil
}

// MarkViewed flags a contact as viewed.
func (s *SQLiteStore) MarkViewed(ctx context.Context, id string) error {
	return s.exec(ctx, "UPDATE contact SET viewed = 1 WHERE id = ?", id)
}

// SaveReply stores a reply that has already been delivered.
// PRE: reply was sent successfully
// POST: reply, replied_at and viewed are set
func (s *SQLiteStore) SaveReply(ctx context.Context, id, reply string, at time.Time) error {
	return s.exec(ctx, "UPDATE contact SET reply = ?, replied_at = ?, viewed = 1 WHERE id = ?",
		reply, storage.FormatTime(at), id)
}

// Delete removes a contact.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM contact WHERE id = ?", id)
}
