package contact

import (
	"context"
	"time"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/contact"
)

// Store persists storefront contact messages.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Contact, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Contact, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Save(ctx context.Context, c domain.Contact) error
	MarkViewed(ctx context.Context, id string) error
	SaveReply(ctx context.Context, id, reply string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	Replied string // yes/no
	Viewed  string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
}

var _ Store = (*SQLiteStore)(nil)
