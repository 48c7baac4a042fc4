package review

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/review"
)

// Store persists product reviews and keeps product ratings in step with them.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Review, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Review, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	MarkAllViewed(ctx context.Context) (int, error)
	ToggleStatus(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	Rating    string
	Status    string
	ProductID string
	Viewed    string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"rating":     "r.rating",
	"created_at": "r.created_at",
	"product":    "p.name",
}

var _ Store = (*SQLiteStore)(nil)
