package banner

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/banner"
	uploaddomain "marketadmin/internal/domain/upload"
)

// Store persists storefront banners.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Banner, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Banner, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Save(ctx context.Context, b domain.Banner) ([]uploaddomain.Upload, error)
	TogglePublished(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	Position  string
	Published string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"position":   "position",
	"created_at": "created_at",
	"title":      "title",
}

var _ Store = (*SQLiteStore)(nil)
