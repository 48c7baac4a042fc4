package audit

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/audit"
)

const columns = "id, timestamp, actor_id, actor_email, page, action, resource_id, detail, ip_address"

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_event ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, storage.FormatTime(e.Timestamp), e.ActorID, e.ActorEmail, e.Page,
		string(e.Action), e.ResourceID, e.Detail, e.IPAddress)
	return err
}

func filterWhere(f Filter) *storage.Where {
	return storage.NewWhere().
		EqIf("page", f.Page).
		EqIf("action", f.Action).
		EqIf("actor_id", f.ActorID).
		Search(f.Search, "actor_email", "resource_id", "detail")
}

// Count returns the number of events matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int, error) {
	w := filterWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_event"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns audit events matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]domain.Event, error) {
	w := filterWhere(f)
	query := "SELECT " + columns + " FROM audit_event" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "timestamp DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &e.ActorEmail, &e.Page, &e.Action,
			&e.ResourceID, &e.Detail, &e.IPAddress); err != nil {
			return nil, err
		}
		e.Timestamp, _ = storage.ParseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
