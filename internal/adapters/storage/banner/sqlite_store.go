package banner

import (
	"context"
	"database/sql"

	"marketadmin/internal/adapters/storage"
	uploadstore "marketadmin/internal/adapters/storage/upload"
	domain "marketadmin/internal/domain/banner"
	uploaddomain "marketadmin/internal/domain/upload"
)

const columns = "id, title, url, position, upload_id, published, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new banner store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func getByID(ctx context.Context, q storage.Querier, id string) (domain.Banner, error) {
	var b domain.Banner
	err := q.QueryRowContext(ctx, "SELECT "+columns+" FROM banner WHERE id = ?", id).
		Scan(&b.ID, &b.Title, &b.URL, &b.Position, &b.UploadID, &b.Published, storage.TimeDest(&b.CreatedAt))
	return b, err
}

// GetByID retrieves a banner by its ID.
// POST: Returns the banner or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Banner, error) {
	b, err := getByID(ctx, s.db, id)
	return b, storage.NotFound("banner", err)
}

func listWhere(f ListFilter) *storage.Where {
	return storage.NewWhere().
		Search(f.Search, "title", "url").
		EqIf("position", f.Position).
		BoolIf("published", f.Published)
}

// Count returns the number of banners matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM banner"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of banners matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Banner, error) {
	w := listWhere(f)
	query := "SELECT " + columns + " FROM banner" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "position ASC, created_at DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Banner
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &b.Position, &b.UploadID, &b.Published, storage.TimeDest(&b.CreatedAt)); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Save upserts a banner. When the image changed, the previous upload row is
// deleted in the same transaction and returned.
// PRE: b has been validated
func (s *SQLiteStore) Save(ctx context.Context, b domain.Banner) ([]uploaddomain.Upload, error) {
	var replaced []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := getByID(ctx, tx, b.ID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO banner (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title=excluded.title, url=excluded.url, position=excluded.position,
				upload_id=excluded.upload_id, published=excluded.published`,
			b.ID, b.Title, b.URL, b.Position, b.UploadID, storage.Bool(b.Published), storage.FormatTime(b.CreatedAt))
		if err != nil {
			return err
		}
		replaced, err = uploadstore.ReplaceIfChanged(ctx, tx, prev.UploadID, b.UploadID)
		return err
	})
	return replaced, err
}

// TogglePublished flips the published flag and returns the new value.
func (s *SQLiteStore) TogglePublished(ctx context.Context, id string) (bool, error) {
	var on bool
	err := s.db.QueryRowContext(ctx, "UPDATE banner SET published = 1 - published WHERE id = ? RETURNING published", id).Scan(&on)
	return on, storage.NotFound("banner", err)
}

// Delete removes a banner and its image row.
// POST: Returns the removed upload so the caller can delete the file
func (s *SQLiteStore) Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error) {
	var removed []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		b, err := getByID(ctx, tx, id)
		if err != nil {
			return storage.NotFound("banner", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM banner WHERE id = ?", id); err != nil {
			return err
		}
		removed, err = uploadstore.DeleteRows(ctx, tx, b.UploadID)
		return err
	})
	return removed, err
}
