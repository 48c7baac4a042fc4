package upload

import (
	"context"
	"database/sql"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/upload"
)

const columns = "id, file_original_name, file_name, file_size, extension, type, user_id, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new upload store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an upload by its ID.
// PRE: id is non-empty
// POST: Returns the upload or a wrapped sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Upload, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM upload WHERE id = ?", id)
	u, err := scanUpload(row.Scan)
	return u, storage.NotFound("upload", err)
}

// Save inserts an upload row.
// PRE: u.ID and u.FileName are set
// POST: Row is persisted
func (s *SQLiteStore) Save(ctx context.Context, u domain.Upload) error {
	return Insert(ctx, s.db, u)
}

// Delete removes one upload row and returns it so the caller can remove the file.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (domain.Upload, error) {
	var removed []domain.Upload
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		removed, err = DeleteRows(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Upload{}, err
	}
	if len(removed) == 0 {
		return domain.Upload{}, storage.NotFound("upload", sql.ErrNoRows)
	}
	return removed[0], nil
}

// Insert writes u through q so owners can save an image in their own transaction.
func Insert(ctx context.Context, q storage.Querier, u domain.Upload) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO upload ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.FileOriginalName, u.FileName, u.FileSize, u.Extension, u.Type,
		storage.NullString(u.UserID), storage.FormatTime(u.CreatedAt))
	return err
}

// DeleteRows deletes the given upload rows through q and returns what was
// removed. Empty ids are skipped. Files are not touched; callers remove them
// after the surrounding transaction commits.
func DeleteRows(ctx context.Context, q storage.Querier, ids ...string) ([]domain.Upload, error) {
	var keep []string
	for _, id := range ids {
		if id != "" {
			keep = append(keep, id)
		}
	}
	if len(keep) == 0 {
		return nil, nil
	}
	in := storage.Placeholders(len(keep))
	rows, err := q.QueryContext(ctx, "SELECT "+columns+" FROM upload WHERE id IN ("+in+")", storage.StringArgs(keep)...)
	if err != nil {
		return nil, err
	}
	var removed []domain.Upload
	for rows.Next() {
		u, err := scanUpload(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM upload WHERE id IN ("+in+")", storage.StringArgs(keep)...); err != nil {
		return nil, err
	}
	return removed, nil
}

// ReplaceIfChanged deletes oldID when an owner switches to a different image.
func ReplaceIfChanged(ctx context.Context, q storage.Querier, oldID, newID string) ([]domain.Upload, error) {
	if oldID == "" || oldID == newID {
		return nil, nil
	}
	return DeleteRows(ctx, q, oldID)
}

func scanUpload(scan func(dest ...any) error) (domain.Upload, error) {
	var u domain.Upload
	var userID sql.NullString
	var createdAt string
	if err := scan(&u.ID, &u.FileOriginalName, &u.FileName, &u.FileSize, &u.Extension, &u.Type, &userID, &createdAt); err != nil {
		return domain.Upload{}, err
	}
	u.UserID = userID.String
	u.CreatedAt, _ = storage.ParseTime(createdAt)
	return u, nil
}
