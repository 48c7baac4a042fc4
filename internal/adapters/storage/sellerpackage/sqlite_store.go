package sellerpackage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/storage"
	uploadstore "marketadmin/internal/adapters/storage/upload"
	domain "marketadmin/internal/domain/sellerpackage"
	uploaddomain "marketadmin/internal/domain/upload"
)

const columns = "id, name, amount, product_upload_limit, duration_days, logo_upload_id, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new seller package store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func packageDest(p *domain.Package) []any {
	return []any{&p.ID, &p.Name, &p.Amount, &p.ProductUploadLimit, &p.DurationDays,
		storage.StringDest(&p.LogoUploadID), storage.TimeDest(&p.CreatedAt)}
}

func getByID(ctx context.Context, q storage.Querier, id string) (domain.Package, error) {
	var p domain.Package
	err := q.QueryRowContext(ctx, "SELECT "+columns+" FROM seller_package WHERE id = ?", id).Scan(packageDest(&p)...)
	return p, err
}

// GetByID retrieves a package.
// POST: Returns the package or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Package, error) {
	p, err := getByID(ctx, s.db, id)
	return p, storage.NotFound("seller package", err)
}

// Count returns the number of packages matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := storage.NewWhere().Search(f.Search, "name")
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seller_package"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of packages matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Package, error) {
	w := storage.NewWhere().Search(f.Search, "name")
	query := "SELECT " + columns + " FROM seller_package" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "amount ASC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Package
	for rows.Next() {
		var p domain.Package
		if err := rows.Scan(packageDest(&p)...); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Translation returns the stored name for lang.
func (s *SQLiteStore) Translation(ctx context.Context, id, lang string) (domain.Translation, error) {
	tr := domain.Translation{SellerPackageID: id, Lang: lang}
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM seller_package_translation WHERE seller_package_id = ? AND lang = ?", id, lang).Scan(&tr.Name)
	return tr, storage.NotFound("seller package translation", err)
}

// Save upserts a package and its optional translation. A replaced logo is
// deleted in the same transaction and returned.
// PRE: p has been validated
func (s *SQLiteStore) Save(ctx context.Context, p domain.Package, tr *domain.Translation) ([]uploaddomain.Upload, error) {
	var replaced []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := getByID(ctx, tx, p.ID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO seller_package (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, amount=excluded.amount,
				product_upload_limit=excluded.product_upload_limit, duration_days=excluded.duration_days,
				logo_upload_id=excluded.logo_upload_id`,
			p.ID, p.Name, p.Amount, p.ProductUploadLimit, p.DurationDays,
			storage.NullString(p.LogoUploadID), storage.FormatTime(p.CreatedAt))
		if err != nil {
			return err
		}
		if tr != nil {
			_, err = tx.ExecContext(ctx, `INSERT INTO seller_package_translation (id, seller_package_id, lang, name)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(seller_package_id, lang) DO UPDATE SET name=excluded.name`,
				uuid.NewString(), p.ID, tr.Lang, tr.Name)
			if err != nil {
				return err
			}
		}
		replaced, err = uploadstore.ReplaceIfChanged(ctx, tx, prev.LogoUploadID, p.LogoUploadID)
		return err
	})
	return replaced, err
}

// Delete removes a package with its translations and logo.
// POST: Returns the removed upload rows so the caller can delete the files
func (s *SQLiteStore) Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error) {
	var removed []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := getByID(ctx, tx, id)
		if err != nil {
			return storage.NotFound("seller package", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM seller_package_translation WHERE seller_package_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM seller_package WHERE id = ?", id); err != nil {
			return err
		}
		removed, err = uploadstore.DeleteRows(ctx, tx, p.LogoUploadID)
		return err
	})
	return removed, err
}
