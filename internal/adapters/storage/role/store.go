package role

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/role"
)

// Store persists roles.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Role, error)
	Save(ctx context.Context, r domain.Role) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Role, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	All(ctx context.Context) ([]domain.Role, error)
	StaffCounts(ctx context.Context) (map[string]int, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

var _ Store = (*SQLiteStore)(nil)
