package flashdeal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/storage"
	uploadstore "marketadmin/internal/adapters/storage/upload"
	domain "marketadmin/internal/domain/flashdeal"
	uploaddomain "marketadmin/internal/domain/upload"
)

const columns = "id, title, slug, start_date, end_date, status, featured, background_color, text_color, banner_upload_id, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new flash deal store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func dealDest(d *domain.FlashDeal) []any {
	return []any{&d.ID, &d.Title, &d.Slug, storage.TimeDest(&d.StartDate), storage.TimeDest(&d.EndDate),
		&d.Status, &d.Featured, &d.BackgroundColor, &d.TextColor, storage.StringDest(&d.BannerUploadID),
		storage.TimeDest(&d.CreatedAt)}
}

func getByID(ctx context.Context, q storage.Querier, id string) (domain.FlashDeal, error) {
	var d domain.FlashDeal
	err := q.QueryRowContext(ctx, "SELECT "+columns+" FROM flash_deal WHERE id = ?", id).Scan(dealDest(&d)...)
	return d, err
}

// GetByID retrieves a deal by its ID.
// POST: Returns the deal or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.FlashDeal, error) {
	d, err := getByID(ctx, s.db, id)
	return d, storage.NotFound("flash deal", err)
}

func listWhere(f ListFilter) *storage.Where {
	return storage.NewWhere().
		Search(f.Search, "title").
		BoolIf("status", f.Status).
		BoolIf("featured", f.Featured)
}

// Count returns the number of deals matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM flash_deal"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of deals matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.FlashDeal, error) {
	w := listWhere(f)
	query := "SELECT " + columns + " FROM flash_deal" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "start_date DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)
	return s.query(ctx, query+page, args...)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.FlashDeal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.FlashDeal
	for rows.Next() {
		var d domain.FlashDeal
		if err := rows.Scan(dealDest(&d)...); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SlugExists reports whether slug is taken by a deal other than excludeID.
func (s *SQLiteStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM flash_deal WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n > 0, err
}

// Lines returns the deal's product lines with product names and prices.
func (s *SQLiteStore) Lines(ctx context.Context, id string) ([]LineRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT l.id, l.flash_deal_id, l.product_id, l.discount, l.discount_type, p.name, p.unit_price
		FROM flash_deal_product l JOIN product p ON p.id = l.product_id
		WHERE l.flash_deal_id = ? ORDER BY p.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineRow
	for rows.Next() {
		var l LineRow
		if err := rows.Scan(&l.ID, &l.FlashDealID, &l.ProductID, &l.Discount, &l.DiscountType, &l.ProductName, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Save upserts the deal, replaces all of its product lines, and stores the
// optional translation. A replaced banner image is deleted and returned.
// PRE: d and lines have been validated
// POST: Deal, lines, translation and image change together or not at all
func (s *SQLiteStore) Save(ctx context.Context, d domain.FlashDeal, lines []domain.Line, tr *domain.Translation) ([]uploaddomain.Upload, error) {
	var replaced []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := getByID(ctx, tx, d.ID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if d.Featured {
			if err := unfeatureOthers(ctx, tx, d.ID); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO flash_deal (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title=excluded.title, slug=excluded.slug, start_date=excluded.start_date,
				end_date=excluded.end_date, status=excluded.status, featured=excluded.featured,
				background_color=excluded.background_color, text_color=excluded.text_color,
				banner_upload_id=excluded.banner_upload_id`,
			d.ID, d.Title, d.Slug, storage.FormatTime(d.StartDate), storage.FormatTime(d.EndDate),
			storage.Bool(d.Status), storage.Bool(d.Featured), d.BackgroundColor, d.TextColor,
			storage.NullString(d.BannerUploadID), storage.FormatTime(d.CreatedAt))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM flash_deal_product WHERE flash_deal_id = ?", d.ID); err != nil {
			return err
		}
		for _, l := range lines {
			_, err := tx.ExecContext(ctx, `INSERT INTO flash_deal_product (id, flash_deal_id, product_id, discount, discount_type)
				VALUES (?, ?, ?, ?, ?)`, uuid.NewString(), d.ID, l.ProductID, l.Discount, l.DiscountType)
			if err != nil {
				return err
			}
		}
		if tr != nil {
			_, err = tx.ExecContext(ctx, `INSERT INTO flash_deal_translation (id, flash_deal_id, lang, title) VALUES (?, ?, ?, ?)
				ON CONFLICT(flash_deal_id, lang) DO UPDATE SET title=excluded.title`,
				uuid.NewString(), d.ID, tr.Lang, tr.Title)
			if err != nil {
				return err
			}
		}
		replaced, err = uploadstore.ReplaceIfChanged(ctx, tx, prev.BannerUploadID, d.BannerUploadID)
		return err
	})
	return replaced, err
}

func unfeatureOthers(ctx context.Context, q storage.Querier, id string) error {
	_, err := q.ExecContext(ctx, "UPDATE flash_deal SET featured = 0 WHERE featured = 1 AND id != ?", id)
	return err
}

// ToggleStatus flips the enabled flag and returns the new value.
func (s *SQLiteStore) ToggleStatus(ctx context.Context, id string) (bool, error) {
	var on bool
	err := s.db.QueryRowContext(ctx, "UPDATE flash_deal SET status = 1 - status WHERE id = ? RETURNING status", id).Scan(&on)
	return on, storage.NotFound("flash deal", err)
}

// ToggleFeatured flips the featured flag. Featuring a deal un-features every
// other deal in the same transaction.
// POST: At most one deal is featured
func (s *SQLiteStore) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	var on bool
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "UPDATE flash_deal SET featured = 1 - featured WHERE id = ? RETURNING featured", id).Scan(&on)
		if err != nil {
			return storage.NotFound("flash deal", err)
		}
		if on {
			return unfeatureOthers(ctx, tx, id)
		}
		return nil
	})
	return on, err
}

// Delete removes a deal with its lines, translations and banner image.
// POST: Returns the removed upload rows so the caller can delete the files
func (s *SQLiteStore) Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error) {
	var removed []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		d, err := getByID(ctx, tx, id)
		if err != nil {
			return storage.NotFound("flash deal", err)
		}
		for _, stmt := range []string{
			"DELETE FROM flash_deal_product WHERE flash_deal_id = ?",
			"DELETE FROM flash_deal_translation WHERE flash_deal_id = ?",
			"DELETE FROM flash_deal WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		removed, err = uploadstore.DeleteRows(ctx, tx, d.BannerUploadID)
		return err
	})
	return removed, err
}

// Featured returns the enabled, featured deal. Whether it is running is left
// to the caller.
// POST: Returns a wrapped sql.ErrNoRows when no deal is featured
func (s *SQLiteStore) Featured(ctx context.Context) (domain.FlashDeal, error) {
	var d domain.FlashDeal
	err := s.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM flash_deal WHERE status = 1 AND featured = 1 LIMIT 1").Scan(dealDest(&d)...)
	return d, storage.NotFound("featured flash deal", err)
}

// CountRunning returns the number of enabled deals running at now.
func (s *SQLiteStore) CountRunning(ctx context.Context, now time.Time) (int, error) {
	deals, err := s.query(ctx, "SELECT "+columns+" FROM flash_deal WHERE status = 1")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range deals {
		if d.IsLive(now) {
			n++
		}
	}
	return n, nil
}
