package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/product"
)

const columns = `p.id, p.name, p.slug, p.category_id, p.added_by, p.seller_id, p.unit_price, p.discount,
	p.discount_type, p.current_stock, p.description, p.published, p.featured, p.todays_deal, p.approved,
	p.rating, p.num_of_reviews, p.created_at, p.updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new product store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a product by its ID.
// PRE: id is non-empty
// POST: Returns the product or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM product p WHERE p.id = ?", id)
	var p domain.Product
	err := row.Scan(productDest(&p)...)
	if err != nil {
		return domain.Product{}, storage.NotFound("product", err)
	}
	return p, nil
}

func listWhere(f ListFilter) *storage.Where {
	w := storage.NewWhere()
	if term := f.Search; term != "" {
		pattern := "%" + storage.EscapeLike(term) + "%"
		w.Raw(`(p.name LIKE ? ESCAPE '\' OR p.slug LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM product_stock st WHERE st.product_id = p.id AND st.sku LIKE ? ESCAPE '\'))`,
			pattern, pattern, pattern)
	}
	switch f.CategoryID {
	case "":
	case NoCategory:
		w.Raw("p.category_id IS NULL")
	default:
		w.Eq("p.category_id", f.CategoryID)
	}
	return w.EqIf("p.added_by", f.AddedBy).
		EqIf("p.seller_id", f.SellerID).
		BoolIf("p.published", f.Published).
		BoolIf("p.approved", f.Approved).
		BoolIf("p.featured", f.Featured)
}

// Count returns the number of products matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product p"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of products with category names.
// PRE: f.Sort has been checked against SortColumns or is empty
// POST: Returns at most f.Limit rows
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Row, error) {
	w := listWhere(f)
	query := "SELECT " + columns + ", COALESCE(c.name, '') FROM product p LEFT JOIN category c ON c.id = p.category_id" +
		w.SQL() + storage.OrderBy(f.Sort, f.Dir, SortColumns, "p.created_at DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var r Row
		dest := productDest(&r.Product)
		if err := rows.Scan(append(dest, &r.CategoryName)...); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SlugExists reports whether slug is taken by a product other than excludeID.
func (s *SQLiteStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n > 0, err
}

// Stocks returns every stock row of a product, default row first.
func (s *SQLiteStore) Stocks(ctx context.Context, id string) ([]domain.Stock, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, product_id, variant, sku, price, qty FROM product_stock WHERE product_id = ? ORDER BY variant", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Stock
	for rows.Next() {
		var st domain.Stock
		if err := rows.Scan(&st.ID, &st.ProductID, &st.Variant, &st.SKU, &st.Price, &st.Qty); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Translation returns the stored name and description for lang.
func (s *SQLiteStore) Translation(ctx context.Context, id, lang string) (domain.Translation, error) {
	tr := domain.Translation{ProductID: id, Lang: lang}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, description FROM product_translation WHERE product_id = ? AND lang = ?", id, lang).
		Scan(&tr.Name, &tr.Description)
	return tr, storage.NotFound("product translation", err)
}

// Save upserts the product, its default stock row and optional translation,
// then recomputes current_stock from all stock rows.
// PRE: p has been validated; stock.Variant is "" for the default row
// POST: All rows change together or not at all
func (s *SQLiteStore) Save(ctx context.Context, p domain.Product, stock domain.Stock, tr *domain.Translation) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO product (id, name, slug, category_id, added_by, seller_id,
				unit_price, discount, discount_type, current_stock, description, published, featured, todays_deal,
				approved, rating, num_of_reviews, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, 0, 0, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name=excluded.name,
				slug=excluded.slug,
				category_id=excluded.category_id,
				added_by=excluded.added_by,
				seller_id=excluded.seller_id,
				unit_price=excluded.unit_price,
				discount=excluded.discount,
				discount_type=excluded.discount_type,
				description=excluded.description,
				published=excluded.published,
				featured=excluded.featured,
				todays_deal=excluded.todays_deal,
				approved=excluded.approved,
				updated_at=excluded.updated_at`,
			p.ID, p.Name, p.Slug, storage.NullString(p.CategoryID), p.AddedBy, storage.NullString(p.SellerID),
			p.UnitPrice, p.Discount, p.DiscountType, p.Description, storage.Bool(p.Published),
			storage.Bool(p.Featured), storage.Bool(p.TodaysDeal), storage.Bool(p.Approved),
			storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt))
		if err != nil {
			return err
		}
		if stock.ID == "" {
			stock.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO product_stock (id, product_id, variant, sku, price, qty)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(product_id, variant) DO UPDATE SET sku=excluded.sku, price=excluded.price, qty=excluded.qty`,
			stock.ID, p.ID, stock.Variant, stock.SKU, p.UnitPrice, stock.Qty)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE product SET current_stock =
			(SELECT COALESCE(SUM(qty), 0) FROM product_stock WHERE product_id = ?) WHERE id = ?`, p.ID, p.ID)
		if err != nil {
			return err
		}
		if tr != nil {
			_, err = tx.ExecContext(ctx, `INSERT INTO product_translation (id, product_id, lang, name, description)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(product_id, lang) DO UPDATE SET name=excluded.name, description=excluded.description`,
				uuid.NewString(), p.ID, tr.Lang, tr.Name, tr.Description)
		}
		return err
	})
}

// Toggle flips one of the FieldX boolean columns and returns the new value.
// PRE: field is FieldPublished, FieldFeatured or FieldTodaysDeal
func (s *SQLiteStore) Toggle(ctx context.Context, id, field string, now time.Time) (bool, error) {
	col, ok := toggleColumns[field]
	if !ok {
		return false, fmt.Errorf("product field %q cannot be toggled", field)
	}
	var on bool
	err := s.db.QueryRowContext(ctx,
		"UPDATE product SET "+col+" = 1 - "+col+", updated_at = ? WHERE id = ? RETURNING "+col,
		storage.FormatTime(now), id).Scan(&on)
	return on, storage.NotFound("product", err)
}

// SetApproval approves a product, or rejects it which also unpublishes it.
// POST: Returns a wrapped sql.ErrNoRows when the product does not exist
func (s *SQLiteStore) SetApproval(ctx context.Context, id string, approved bool, now time.Time) error {
	query := "UPDATE product SET approved = 1, updated_at = ? WHERE id = ?"
	if !approved {
		query = "UPDATE product SET approved = 0, published = 0, updated_at = ? WHERE id = ?"
	}
	res, err := s.db.ExecContext(ctx, query, storage.FormatTime(now), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFound("product", sql.ErrNoRows)
	}
	return nil
}

// Delete removes products with their translations, stock rows, flash deal
// lines and reviews.
// PRE: ids is non-empty
// POST: Returns the number of products removed; all rows go together or not at all
func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in := "(" + storage.Placeholders(len(ids)) + ")"
	args := storage.StringArgs(ids)
	var removed int64
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{"product_translation", "product_stock", "flash_deal_product", "review"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE product_id IN "+in, args...); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM product WHERE id IN "+in, args...)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return int(removed), err
}

// Prices returns unit prices keyed by id for the products that exist.
func (s *SQLiteStore) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, unit_price FROM product WHERE id IN ("+storage.Placeholders(len(ids))+")", storage.StringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		out[id] = price
	}
	return out, rows.Err()
}

// productDest returns Scan destinations matching columns.
func productDest(p *domain.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Slug, storage.StringDest(&p.CategoryID), &p.AddedBy, storage.StringDest(&p.SellerID),
		&p.UnitPrice, &p.Discount, &p.DiscountType, &p.CurrentStock, &p.Description, &p.Published,
		&p.Featured, &p.TodaysDeal, &p.Approved, &p.Rating, &p.NumReviews,
		storage.TimeDest(&p.CreatedAt), storage.TimeDest(&p.UpdatedAt),
	}
}
