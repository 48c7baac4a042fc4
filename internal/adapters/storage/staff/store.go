package staff

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/staff"
)

// Store persists staff accounts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, a domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	RoleID   string
	Status   string
	UserType string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

var _ Store = (*SQLiteStore)(nil)
