package category

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/storage"
	uploadstore "marketadmin/internal/adapters/storage/upload"
	domain "marketadmin/internal/domain/category"
	uploaddomain "marketadmin/internal/domain/upload"
)

const columns = "id, parent_id, level, name, slug, banner_upload_id, icon_upload_id, featured, commission_rate, order_level, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new category store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a category by its ID.
// PRE: id is non-empty
// POST: Returns the category or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Category, error) {
	c, err := getByID(ctx, s.db, id)
	return c, storage.NotFound("category", err)
}

func getByID(ctx context.Context, q storage.Querier, id string) (domain.Category, error) {
	row := q.QueryRowContext(ctx, "SELECT "+columns+" FROM category WHERE id = ?", id)
	return scanCategory(row.Scan)
}

// All returns every category, for tree building and parent pickers.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.Category, error) {
	return s.query(ctx, "SELECT "+columns+" FROM category ORDER BY level, order_level DESC, name")
}

func listWhere(f ListFilter) *storage.Where {
	w := storage.NewWhere().Search(f.Search, "name", "slug").BoolIf("featured", f.Featured)
	switch f.ParentID {
	case "":
	case RootParent:
		w.Raw("parent_id IS NULL")
	default:
		w.Eq("parent_id", f.ParentID)
	}
	return w
}

// Count returns the number of categories matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	w := listWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM category"+w.SQL(), w.Args()...).Scan(&n)
	return n, err
}

// List returns one page of categories matching the filter.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Category, error) {
	w := listWhere(f)
	query := "SELECT " + columns + " FROM category" + w.SQL() +
		storage.OrderBy(f.Sort, f.Dir, SortColumns, "order_level DESC, name ASC")
	page, args := storage.Page(w.Args(), f.Limit, f.Offset)
	return s.query(ctx, query+page, args...)
}

// SlugExists reports whether slug is taken by a category other than excludeID.
func (s *SQLiteStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM category WHERE slug = ? AND id != ?", slug, excludeID).Scan(&n)
	return n > 0, err
}

// Translation returns the stored name for lang.
// POST: Returns a wrapped sql.ErrNoRows when no translation exists
func (s *SQLiteStore) Translation(ctx context.Context, id, lang string) (domain.Translation, error) {
	tr := domain.Translation{CategoryID: id, Lang: lang}
	err := s.db.QueryRowContext(ctx, "SELECT name FROM category_translation WHERE category_id = ? AND lang = ?", id, lang).Scan(&tr.Name)
	return tr, storage.NotFound("category translation", err)
}

// Save upserts the category and, when given, its translation. Images that the
// save replaced are deleted in the same transaction and returned. Descendants
// are re-levelled under c's new level.
// PRE: c has been validated, Level derived from its parent
// POST: Category, subtree levels, translation and replaced uploads change together or not at all
func (s *SQLiteStore) Save(ctx context.Context, c domain.Category, tr *domain.Translation) ([]uploaddomain.Upload, error) {
	var replaced []uploaddomain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := getByID(ctx, tx, c.ID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO category (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				parent_id=excluded.parent_id,
				level=excluded.level,
				name=excluded.name,
				slug=excluded.slug,
				banner_upload_id=excluded.banner_upload_id,
				icon_upload_id=excluded.icon_upload_id,
				featured=excluded.featured,
				commission_rate=excluded.commission_rate,
				order_level=excluded.order_level`,
			c.ID, storage.NullString(c.ParentID), c.Level, c.Name, c.Slug,
			storage.NullString(c.BannerUploadID), storage.NullString(c.IconUploadID),
			storage.Bool(c.Featured), c.CommissionRate, c.OrderLevel, storage.FormatTime(c.CreatedAt))
		if err != nil {
			return err
		}
		if err := relevelSubtree(ctx, tx, c.ID); err != nil {
			return err
		}
		if tr != nil {
			_, err = tx.ExecContext(ctx, `INSERT INTO category_translation (id, category_id, lang, name) VALUES (?, ?, ?, ?)
				ON CONFLICT(category_id, lang) DO UPDATE SET name=excluded.name`,
				uuid.NewString(), c.ID, tr.Lang, tr.Name)
			if err != nil {
				return err
			}
		}
		for _, pair := range [][2]string{{prev.BannerUploadID, c.BannerUploadID}, {prev.IconUploadID, c.IconUploadID}} {
			removed, err := uploadstore.ReplaceIfChanged(ctx, tx, pair[0], pair[1])
			if err != nil {
				return err
			}
			replaced = append(replaced, removed...)
		}
		return nil
	})
	return replaced, err
}

// relevelSubtree sets the level of every category below id to its depth
// under id. Parent cycles are rejected before a save, so the walk ends.
func relevelSubtree(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `WITH RECURSIVE sub(id, level) AS (
			SELECT id, level FROM category WHERE id = ?
			UNION ALL
			SELECT c.id, sub.level + 1 FROM category c JOIN sub ON c.parent_id = sub.id
		)
		UPDATE category SET level = (SELECT level FROM sub WHERE sub.id = category.id)
		WHERE id IN (SELECT id FROM sub) AND id <> ?`, id, id)
	return err
}

// ToggleFeatured flips the featured flag and returns the new value.
func (s *SQLiteStore) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	var featured bool
	err := s.db.QueryRowContext(ctx,
		"UPDATE category SET featured = 1 - featured WHERE id = ? RETURNING featured", id).Scan(&featured)
	return featured, storage.NotFound("category", err)
}

// Delete removes the category, all of its descendants, their translations and
// images. Products in any removed category become uncategorised.
// PRE: id is non-empty
// POST: Everything is removed in one transaction; files are left for the caller
func (s *SQLiteStore) Delete(ctx context.Context, id string) (Deleted, error) {
	var out Deleted
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ids, uploadIDs, err := subtree(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return storage.NotFound("category", sql.ErrNoRows)
		}
		in := "(" + storage.Placeholders(len(ids)) + ")"
		args := storage.StringArgs(ids)

		res, err := tx.ExecContext(ctx, "UPDATE product SET category_id = NULL WHERE category_id IN "+in, args...)
		if err != nil {
			return err
		}
		orphaned, _ := res.RowsAffected()
		if _, err := tx.ExecContext(ctx, "DELETE FROM category_translation WHERE category_id IN "+in, args...); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM category WHERE id IN "+in, args...); err != nil {
			return err
		}
		removed, err := uploadstore.DeleteRows(ctx, tx, uploadIDs...)
		if err != nil {
			return err
		}
		out = Deleted{CategoryIDs: ids, OrphanedProducts: int(orphaned), Uploads: removed}
		return nil
	})
	return out, err
}

// subtree returns the ids of id and every descendant, plus their image upload ids.
func subtree(ctx context.Context, q storage.Querier, id string) (ids, uploadIDs []string, err error) {
	rows, err := q.QueryContext(ctx, `WITH RECURSIVE sub(id) AS (
			SELECT id FROM category WHERE id = ?
			UNION
			SELECT c.id FROM category c JOIN sub ON c.parent_id = sub.id
		)
		SELECT c.id, c.banner_upload_id, c.icon_upload_id FROM category c JOIN sub ON c.id = sub.id`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid string
		var banner, icon sql.NullString
		if err := rows.Scan(&cid, &banner, &icon); err != nil {
			return nil, nil, err
		}
		ids = append(ids, cid)
		uploadIDs = append(uploadIDs, banner.String, icon.String)
	}
	return ids, uploadIDs, rows.Err()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func scanCategory(scan func(dest ...any) error) (domain.Category, error) {
	var c domain.Category
	var parentID, banner, icon sql.NullString
	var createdAt string
	err := scan(&c.ID, &parentID, &c.Level, &c.Name, &c.Slug, &banner, &icon,
		&c.Featured, &c.CommissionRate, &c.OrderLevel, &createdAt)
	if err != nil {
		return domain.Category{}, err
	}
	c.ParentID = parentID.String
	c.BannerUploadID = banner.String
	c.IconUploadID = icon.String
	c.CreatedAt, _ = storage.ParseTime(createdAt)
	return c, nil
}
