package upload

import (
	"context"

	domain "marketadmin/internal/domain/upload"
)

// Store persists upload metadata. File bytes live in the uploads adapter.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Upload, error)
	Save(ctx context.Context, u domain.Upload) error
	Delete(ctx context.Context, id string) (domain.Upload, error)
}

var _ Store = (*SQLiteStore)(nil)
