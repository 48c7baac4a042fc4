package review

import (
	"context"
	"database/sql"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/review"
)

const selectReview = `SELECT r.id, r.product_id, p.name, r.customer_name, r.rating, r.comment, r.status, r.viewed, r.created_at
	FROM review r JOIN product p ON p.id = r.product_id`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new review store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func reviewDest(r *domain.Review) []any {
	return []any{&r.ID, &r.ProductID, &r.ProductName, &r.CustomerName, &r.Rating, &r.Comment,
		&r.Status, &r.Viewed, storage.TimeDest(&r.CreatedAt)}
}

func getByID(ctx context.Context, q storage.Querier, id string) (domain.Review, error) {
	var r domain.Review
	err := q.QueryRowContext(ctx, selectReview+" WHERE r.id = ?", id).Scan(reviewDest(&r)...)
	return r, storage.NotFound("review", err)
}

// GetByID retrieves a review with its product name.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Review, error) {
	return getByID(ctx, s.db, id)
}

func listWhere(f ListFilter) *storage.Where {
	return storage.NewWhere().
		Search(f.Search, "r.comment", "r.customer_name", "p.name").
		EqIf("r.rating", f.Rating).
		EqIf("r.status", f.Status).
		EqIf("r.product_id", f.ProductID).
		BoolIf("r.viewed", f.Viewed)
}

// Count returns the number of reviews matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review r JOIN product p ON p.id = r.product_id"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of reviews matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Review, error) {
	w := listWhere(f)
	query := selectReview + w.SQL() + storage.OrderBy(f.Sort, f.Dir, SortColumns, "r.created_at DESC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(reviewDest(&r)...); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkAllViewed flags every unviewed review as viewed.
// POST: Returns the number of reviews updated
func (s *SQLiteStore) MarkAllViewed(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE review SET viewed = 1 WHERE viewed = 0")
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ToggleStatus flips published/hidden and recomputes the product rating.
// POST: Returns the new status
func (s *SQLiteStore) ToggleStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		r.ToggleStatus()
		if _, err := tx.ExecContext(ctx, "UPDATE review SET status = ? WHERE id = ?", r.Status, id); err != nil {
			return err
		}
		status = r.Status
		return recomputeRating(ctx, tx, r.ProductID)
	})
	return status, err
}

// Delete removes a review and recomputes the product rating.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM review WHERE id = ?", id); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, r.ProductID)
	})
}

// recomputeRating sets product.rating to the average of its published reviews
// (0 when none) and num_of_reviews to their count.
func recomputeRating(ctx context.Context, q storage.Querier, productID string) error {
	rows, err := q.QueryContext(ctx, "SELECT rating FROM review WHERE product_id = ? AND status = ?", productID, domain.StatusPublished)
	if err != nil {
		return err
	}
	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			rows.Close()
			return err
		}
		ratings = append(ratings, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, "UPDATE product SET rating = ?, num_of_reviews = ? WHERE id = ?",
		domain.Average(ratings), len(ratings), productID)
	return err
}
